package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/internal/detection"
	"github.com/tmarini/skywatch/pkg/logger"
)

// Notifier delivers detection alerts to outbound channels
type Notifier interface {
	Notify(ctx context.Context, event *detection.Event) error
}

// TelegramNotifier sends alert cards through the Telegram Bot API. Delivery
// is best effort: a failed send is logged and never blocks the detection
// cycle.
type TelegramNotifier struct {
	cfg        config.TelegramConfig
	httpClient *http.Client
	logger     *logger.Logger

	// Overridable for tests
	baseURL string
}

// NewTelegramNotifier creates a Telegram notifier
func NewTelegramNotifier(cfg config.TelegramConfig, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:  log.Named("telegram"),
		baseURL: "https://api.telegram.org",
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends the alert card for one event
func (n *TelegramNotifier) Notify(ctx context.Context, event *detection.Event) error {
	if !n.cfg.Enabled || n.cfg.BotToken == "" || n.cfg.ChatID == "" {
		return nil
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    n.cfg.ChatID,
		Text:      BuildMessage(event),
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, body)
	}

	var apiResp sendMessageResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && !apiResp.OK {
		return fmt.Errorf("telegram API rejected message: %s", apiResp.Description)
	}

	n.logger.Debug("Alert delivered",
		logger.String("hex", event.Hex),
		logger.String("type", string(event.Type)),
	)
	return nil
}
