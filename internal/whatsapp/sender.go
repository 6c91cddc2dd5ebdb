package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/config"
)

// Sender posts text messages through the WhatsApp Cloud API. It is a
// best-effort side channel: the orchestrator logs failures and moves on.
type Sender struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewSender(cfg config.WhatsApp, logger *zap.Logger) *Sender {
	return &Sender{
		token:   cfg.Token,
		baseURL: fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", cfg.APIVersion, cfg.PhoneNumberID),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type messageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

// SendText delivers body to the given WhatsApp ID (country code, no plus).
func (s *Sender) SendText(ctx context.Context, to, body string) error {
	payload := messageRequest{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(to, "+"),
		Type:             "text",
		Text:             textPayload{Body: body},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("whatsapp send failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Error("whatsapp message rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return fmt.Errorf("whatsapp send: status %d", resp.StatusCode)
	}

	s.logger.Info("whatsapp message sent", zap.String("to", payload.To))
	return nil
}
