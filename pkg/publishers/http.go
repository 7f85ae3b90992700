package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

const runIDHeader = "X-Ledger-Run-Id"

// httpPublisher delivers each append event to a webhook as JSON.
type httpPublisher struct {
	id     string
	cfg    HTTPPublisherConfig
	client *resty.Client
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, _ Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("missing http configuration")
	}
	hc := *cfg.HTTP
	if hc.Method == "" {
		hc.Method = httpDefaultMethod
	}
	if hc.TimeoutSeconds <= 0 {
		hc.TimeoutSeconds = httpDefaultTimeoutSeconds
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(hc.Headers)

	return &httpPublisher{id: cfg.ID, cfg: hc, client: client}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(runIDHeader, evt.RunID).
		SetBody(evt).
		Execute(h.cfg.Method, h.cfg.URL)
	if err != nil {
		return fmt.Errorf("deliver event %s: %w", evt.GUID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("deliver event %s: status %d: %s", evt.GUID, resp.StatusCode(), bodySnippet(resp.Body()))
	}
	return nil
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return strings.TrimSpace(string(body))
}
