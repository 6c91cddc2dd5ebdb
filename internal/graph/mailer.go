package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/config"
	"github.com/benline/priority-gateway/internal/domain"
)

// Mailer sends the graphic-approval email through the Graph sendMail API
// from a fixed sender mailbox. Success means the provider accepted the
// message for asynchronous delivery (202); everything else is a send
// failure. Retrying is the caller's business.
type Mailer struct {
	sender  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewMailer(cfg config.Graph, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender:  cfg.Sender,
		baseURL: "https://graph.microsoft.com/v1.0",
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type emailAddress struct {
	Address string `json:"address"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type message struct {
	Subject      string      `json:"subject"`
	Body         messageBody `json:"body"`
	ToRecipients []recipient `json:"toRecipients"`
}

type sendMailRequest struct {
	Message         message `json:"message"`
	SaveToSentItems string  `json:"saveToSentItems"`
}

// SendApprovalEmail composes the Hebrew approval message for orderID and
// posts it to the recipient. customerName falls back to a generic
// salutation when empty.
func (m *Mailer) SendApprovalEmail(ctx context.Context, token, orderID, recipientEmail, reviewLink, customerName string) error {
	payload := sendMailRequest{
		Message: message{
			Subject: approvalSubject(orderID),
			Body: messageBody{
				ContentType: "HTML",
				Content:     approvalBody(orderID, reviewLink, customerName),
			},
			ToRecipients: []recipient{{EmailAddress: emailAddress{Address: recipientEmail}}},
		},
		SaveToSentItems: "true",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}

	target := fmt.Sprintf("%s/users/%s/sendMail", m.baseURL, m.sender)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("email send failed", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		m.logger.Error("email rejected by provider",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return fmt.Errorf("%w: status %d", domain.ErrSendFailed, resp.StatusCode)
	}

	m.logger.Info("approval email sent",
		zap.String("order", orderID),
		zap.String("recipient", recipientEmail),
	)
	return nil
}
