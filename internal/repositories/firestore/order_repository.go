// Package firestore provides the document-database backed repository
// implementations. Selecting this backend is an explicit configuration
// choice; there is no silent in-memory fallback here.
package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/sabaishop/api/internal/domain"
	pfirestore "github.com/sabaishop/api/internal/platform/firestore"
	"github.com/sabaishop/api/internal/repositories"
)

const ordersCollection = "orders"

type orderLineDocument struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	UnitPrice int64  `firestore:"unitPrice"`
	Quantity  int64  `firestore:"quantity"`
}

type orderDocument struct {
	Number      int64               `firestore:"number"`
	ChannelID   string              `firestore:"channelId"`
	Lines       []orderLineDocument `firestore:"lines"`
	ShippingFee int64               `firestore:"shippingFee"`
	Total       int64               `firestore:"total"`
	Status      string              `firestore:"status"`
	CreatedAt   time.Time           `firestore:"createdAt"`
	ExpiresAt   time.Time           `firestore:"expiresAt"`
	CancelledAt *time.Time          `firestore:"cancelledAt,omitempty"`
}

// OrderRepository implements repositories.OrderRepository on Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection),
	}, nil
}

// Save upserts the order document under its opaque ID.
func (r *OrderRepository) Save(ctx context.Context, order domain.Order) error {
	return r.orders.Set(ctx, order.ID, encodeOrder(order))
}

// Get loads a single order by ID.
func (r *OrderRepository) Get(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc.ID, doc.Data), nil
}

// List returns all orders ordered by their display number.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("number", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeOrder(doc.ID, doc.Data))
	}
	return out, nil
}

// ListActiveExpiredBefore returns active orders whose expiry precedes the instant.
func (r *OrderRepository) ListActiveExpiredBefore(ctx context.Context, before time.Time) ([]domain.Order, error) {
	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.
			Where("status", "==", string(domain.OrderStatusActive)).
			Where("expiresAt", "<", before.UTC())
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeOrder(doc.ID, doc.Data))
	}
	return out, nil
}

// UpdateStatus performs the compare-and-set transition inside a transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, at time.Time) error {
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.orders.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return pfirestore.WrapError("orders.updatestatus", err)
			}
			return err
		}

		var doc orderDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		if doc.Status != string(expected) {
			return repositories.ErrStatusConflict
		}

		updates := []firestore.Update{
			{Path: "status", Value: string(next)},
		}
		if next == domain.OrderStatusCancelled {
			updates = append(updates, firestore.Update{Path: "cancelledAt", Value: at.UTC()})
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return repositories.ErrStatusConflict
		}
		return pfirestore.WrapError("orders.updatestatus", err)
	}
	return nil
}

func encodeOrder(order domain.Order) orderDocument {
	lines := make([]orderLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDocument{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return orderDocument{
		Number:      order.Number,
		ChannelID:   order.ChannelID,
		Lines:       lines,
		ShippingFee: order.ShippingFee,
		Total:       order.Total,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt.UTC(),
		ExpiresAt:   order.ExpiresAt.UTC(),
		CancelledAt: order.CancelledAt,
	}
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	lines := make([]domain.OrderLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return domain.Order{
		ID:          id,
		Number:      doc.Number,
		ChannelID:   doc.ChannelID,
		Lines:       lines,
		ShippingFee: doc.ShippingFee,
		Total:       doc.Total,
		Status:      domain.OrderStatus(doc.Status),
		CreatedAt:   doc.CreatedAt,
		ExpiresAt:   doc.ExpiresAt,
		CancelledAt: doc.CancelledAt,
	}
}
