package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	domain "github.com/sabaishop/api/internal/domain"
	"github.com/sabaishop/api/internal/services"
)

func TestPubSubOrderEventPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderEventPublisher: %v", err)
	}

	occurredAt := time.Date(2026, 1, 2, 7, 30, 0, 0, time.UTC)
	event := services.OrderEvent{
		Type:        "order.created",
		OrderID:     "ord_01TESTULID",
		OrderNumber: 1001,
		Status:      domain.OrderStatusActive,
		OccurredAt:  occurredAt,
	}

	if err := publisher.PublishOrderEvent(ctx, event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected one published message, got %d", len(messages))
	}
	msg := messages[0]
	if msg.Attributes["eventType"] != "order.created" {
		t.Fatalf("unexpected eventType attribute %q", msg.Attributes["eventType"])
	}
	if msg.Attributes["orderId"] != "ord_01TESTULID" {
		t.Fatalf("unexpected orderId attribute %q", msg.Attributes["orderId"])
	}
	if msg.Attributes["orderNumber"] != "1001" {
		t.Fatalf("unexpected orderNumber attribute %q", msg.Attributes["orderNumber"])
	}

	var decoded orderEventMessage
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.OrderID != event.OrderID || decoded.Status != "active" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
	if !decoded.OccurredAt.Equal(occurredAt) {
		t.Fatalf("unexpected occurredAt %s", decoded.OccurredAt)
	}
}

func TestNewPubSubOrderEventPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubOrderEventPublisher(nil); err == nil {
		t.Fatalf("expected an error for a missing topic")
	}
}
