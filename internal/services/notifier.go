package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/specwork/backend/internal/models"
)

// Notifier receives order life-cycle events after they are committed.
// Implementations must tolerate being called from a goroutine; delivery
// failure never affects the triggering operation.
type Notifier interface {
	OrderPaid(order *models.Order)
	OrderCompleted(order *models.Order)
	DisputeOpened(order *models.Order)
}

// WebhookNotifier posts order events to a single webhook endpoint.
type WebhookNotifier struct {
	URL        string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Logger:     logger,
	}
}

type orderEvent struct {
	Event  string        `json:"event"`
	Order  *models.Order `json:"order"`
	SentAt time.Time     `json:"sent_at"`
}

func (n *WebhookNotifier) OrderPaid(order *models.Order)      { n.post("order.paid", order) }
func (n *WebhookNotifier) OrderCompleted(order *models.Order) { n.post("order.completed", order) }
func (n *WebhookNotifier) DisputeOpened(order *models.Order)  { n.post("order.disputed", order) }

func (n *WebhookNotifier) post(event string, order *models.Order) {
	if n.URL == "" {
		return
	}
	body, err := json.Marshal(orderEvent{Event: event, Order: order, SentAt: time.Now()})
	if err != nil {
		n.Logger.Error("marshal notification", "event", event, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		n.Logger.Error("create notification request", "event", event, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		n.Logger.Error("deliver notification", "event", event, "order_id", order.ID, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.Logger.Error("notification rejected", "event", event, "order_id", order.ID, "status", resp.StatusCode)
	}
}
