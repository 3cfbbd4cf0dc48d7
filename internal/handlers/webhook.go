package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sabaishop/api/internal/messaging/line"
	"github.com/sabaishop/api/internal/platform/httpx"
	"github.com/sabaishop/api/internal/platform/observability"
	"github.com/sabaishop/api/internal/platform/requestctx"
)

const (
	maxWebhookBodySize  = 256 * 1024
	signatureHeaderName = "X-Line-Signature"
)

// Replier answers webhook events through the messaging channel.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
}

// WebhookHandlers receives messaging webhook deliveries, validates their
// signature, and answers inbound text messages with the shop greeting.
type WebhookHandlers struct {
	channelSecret string
	replier       Replier
}

// NewWebhookHandlers constructs a new WebhookHandlers instance.
func NewWebhookHandlers(channelSecret string, replier Replier) *WebhookHandlers {
	return &WebhookHandlers{
		channelSecret: channelSecret,
		replier:       replier,
	}
}

// Routes registers the /webhook endpoint.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.receive)
}

func (h *WebhookHandlers) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_body", "unable to read webhook body", http.StatusBadRequest))
		return
	}

	if !line.ValidateSignature(h.channelSecret, body, r.Header.Get(signatureHeaderName)) {
		logger.Warn("webhook signature rejected")
		httpx.WriteError(ctx, w, httpx.NewError("signature_invalid", "webhook signature verification failed", http.StatusUnauthorized))
		return
	}

	var req line.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_body", "webhook body must be valid JSON", http.StatusBadRequest))
		return
	}

	for _, event := range req.Events {
		if !event.IsTextMessage() {
			continue
		}
		if h.replier == nil {
			continue
		}
		greeting := fmt.Sprintf("สวัสดีครับ! ขอบคุณสำหรับข้อความ: \"%s\"\n\nทางร้านจะติดต่อกลับไปเร็วๆ นี้ครับ 😊", event.Message.Text)
		if err := h.replier.Reply(ctx, event.ReplyToken, line.TextMessage(greeting)); err != nil {
			// The delivery is acknowledged regardless; the channel would
			// otherwise retry the whole batch.
			logger.Warn("webhook reply failed",
				zap.String("channel_id", observability.SanitizeChannelID(event.Source.UserID)),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
