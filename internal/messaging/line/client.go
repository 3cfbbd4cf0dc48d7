// Package line implements the LINE Messaging API transport: pushing rendered
// invoice cards to customers and replying to webhook events.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sabaishop/api/internal/invoice"
)

const (
	defaultEndpoint = "https://api.line.me"
	pushPath        = "/v2/bot/message/push"
	replyPath       = "/v2/bot/message/reply"

	defaultTimeout = 10 * time.Second
)

// ErrPushRejected indicates the messaging API answered with a non-2xx status.
var ErrPushRejected = errors.New("line: message rejected")

// Message is a plain text message for webhook replies.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextMessage builds a text message.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

// ClientDeps bundles what the client needs to talk to the messaging API.
type ClientDeps struct {
	// ChannelToken is the long-lived channel access token sent as a bearer token.
	ChannelToken string
	// Endpoint overrides the API base URL, mainly for tests.
	Endpoint string
	// HTTPClient defaults to a client with a ten second timeout. Per-call
	// deadlines still come from the caller's context.
	HTTPClient *http.Client
}

// Client talks to the LINE Messaging API. Calls are not retried; retry
// policy belongs to the caller.
type Client struct {
	token    string
	endpoint string
	http     *http.Client
}

// NewClient validates the channel credentials and builds the transport.
func NewClient(deps ClientDeps) (*Client, error) {
	token := strings.TrimSpace(deps.ChannelToken)
	if token == "" {
		return nil, errors.New("line client: channel token is required")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(deps.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{token: token, endpoint: endpoint, http: httpClient}, nil
}

// Push delivers a rendered invoice card to the customer's channel.
func (c *Client) Push(ctx context.Context, channelID string, document invoice.Document) error {
	if strings.TrimSpace(channelID) == "" {
		return errors.New("line client: channel id is required")
	}
	payload := struct {
		To       string             `json:"to"`
		Messages []invoice.Document `json:"messages"`
	}{
		To:       channelID,
		Messages: []invoice.Document{document},
	}
	return c.post(ctx, pushPath, payload)
}

// Reply answers a webhook event using its one-shot reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if strings.TrimSpace(replyToken) == "" {
		return errors.New("line client: reply token is required")
	}
	if len(messages) == 0 {
		return errors.New("line client: at least one message is required")
	}
	payload := struct {
		ReplyToken string    `json:"replyToken"`
		Messages   []Message `json:"messages"`
	}{
		ReplyToken: replyToken,
		Messages:   messages,
	}
	return c.post(ctx, replyPath, payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line client: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("line client: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrPushRejected, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
