package priority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/config"
	"github.com/benline/priority-gateway/internal/domain"
)

const expandSubforms = "EXTFILES_SUBFORM,ORDERSTEXT_SUBFORM,ORDERSDOCS_SUBFORM,ORDERITEMS_SUBFORM,ORDERSCONT_SUBFORM"

// Client talks to the Priority OData ORDERS collection. Every call carries
// basic auth plus the application headers, and the ERP's error body is
// logged, never returned to the gateway's own clients.
type Client struct {
	baseURL  string
	company  string
	username string
	password string
	appID    string
	appKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewClient(cfg config.Priority, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		company:  cfg.Company,
		username: cfg.Username,
		password: cfg.Password,
		appID:    cfg.AppID,
		appKey:   cfg.AppKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

func (c *Client) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/odata/Priority/tabula.ini/%s/%s", c.baseURL, c.company, suffix)
}

// FetchOrders returns all orders whose status matches any of statuses, with
// the standard sub-forms expanded in a single round trip.
func (c *Client) FetchOrders(ctx context.Context, statuses []string) (*domain.OrderList, error) {
	preds := make([]string, 0, len(statuses))
	for _, s := range statuses {
		preds = append(preds, fmt.Sprintf("ORDSTATUSDES eq '%s'", s))
	}
	q := url.Values{}
	q.Set("$filter", strings.Join(preds, " or "))
	q.Set("$expand", expandSubforms)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.collectionURL("ORDERS")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRead, err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("priority fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRead, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRead, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("priority fetch rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamRead, resp.StatusCode)
	}

	var list domain.OrderList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRead, err)
	}

	c.logger.Info("orders fetched from priority", zap.Int("count", len(list.Value)))
	return &list, nil
}

// UpdateStatus patches the single status field of one order by primary key.
func (c *Client) UpdateStatus(ctx context.Context, orderName, status string) error {
	target := c.collectionURL(fmt.Sprintf("ORDERS('%s')", orderName))
	payload := map[string]string{"ORDSTATUSDES": status}

	if err := c.write(ctx, http.MethodPatch, target, payload); err != nil {
		c.logger.Error("priority status update failed",
			zap.String("order", orderName),
			zap.String("status", status),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUpdate, err)
	}

	c.logger.Info("order status updated",
		zap.String("order", orderName),
		zap.String("status", status),
	)
	return nil
}

// AddAttachment posts a new EXTFILES_SUBFORM child record carrying the
// base64 payload. An empty payload is a no-op, matching the update flow
// that treats the attachment as optional.
func (c *Client) AddAttachment(ctx context.Context, orderName, fileBase64 string) error {
	if fileBase64 == "" {
		return nil
	}

	target := c.collectionURL(fmt.Sprintf("ORDERS('%s')/EXTFILES_SUBFORM", orderName))
	payload := map[string]string{
		"EXTFILEDES":  orderName + " confirmed",
		"EXTFILENAME": fileBase64,
	}

	if err := c.write(ctx, http.MethodPost, target, payload); err != nil {
		c.logger.Error("priority attachment failed",
			zap.String("order", orderName),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUpdate, err)
	}

	c.logger.Info("attachment added", zap.String("order", orderName))
	return nil
}

func (c *Client) write(ctx context.Context, method, target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.decorate(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("priority write rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("X-App-Id", c.appID)
	req.Header.Set("X-App-Key", c.appKey)
}
