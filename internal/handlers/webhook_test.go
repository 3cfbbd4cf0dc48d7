package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sabaishop/api/internal/messaging/line"
)

type stubReplier struct {
	replies []line.Message
	tokens  []string
	err     error
}

func (s *stubReplier) Reply(_ context.Context, replyToken string, messages ...line.Message) error {
	s.tokens = append(s.tokens, replyToken)
	s.replies = append(s.replies, messages...)
	return s.err
}

func signBody(secret string, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newWebhookRouter(secret string, replier Replier) http.Handler {
	return NewRouter(WithWebhookRoutes(NewWebhookHandlers(secret, replier).Routes))
}

func TestWebhookRepliesToTextMessages(t *testing.T) {
	secret := "channel-secret"
	replier := &stubReplier{}
	router := newWebhookRouter(secret, replier)

	body := `{"events":[{"type":"message","replyToken":"rt-1","source":{"type":"user","userId":"U1"},"message":{"id":"m1","type":"text","text":"สั่งชาเขียว"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set(signatureHeaderName, signBody(secret, body))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(replier.tokens) != 1 || replier.tokens[0] != "rt-1" {
		t.Fatalf("unexpected reply tokens %v", replier.tokens)
	}
	if len(replier.replies) != 1 || !strings.Contains(replier.replies[0].Text, "สั่งชาเขียว") {
		t.Fatalf("the greeting must echo the inbound text, got %v", replier.replies)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	replier := &stubReplier{}
	router := newWebhookRouter("channel-secret", replier)

	body := `{"events":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set(signatureHeaderName, "invalid")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(replier.tokens) != 0 {
		t.Fatalf("no reply may be sent for an unverified delivery")
	}
}

func TestWebhookIgnoresNonTextEvents(t *testing.T) {
	secret := "channel-secret"
	replier := &stubReplier{}
	router := newWebhookRouter(secret, replier)

	body := `{"events":[{"type":"follow","replyToken":"rt-1","source":{"type":"user","userId":"U1"}},{"type":"message","replyToken":"rt-2","source":{"type":"user","userId":"U1"},"message":{"id":"m1","type":"sticker"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set(signatureHeaderName, signBody(secret, body))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(replier.tokens) != 0 {
		t.Fatalf("non-text events must not be answered, got %v", replier.tokens)
	}
}

func TestWebhookAcknowledgesDespiteReplyFailure(t *testing.T) {
	secret := "channel-secret"
	replier := &stubReplier{err: errors.New("reply endpoint down")}
	router := newWebhookRouter(secret, replier)

	body := `{"events":[{"type":"message","replyToken":"rt-1","source":{"type":"user","userId":"U1"},"message":{"id":"m1","type":"text","text":"hi"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set(signatureHeaderName, signBody(secret, body))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("a failed reply must not fail the delivery, got %d", rec.Code)
	}
}
