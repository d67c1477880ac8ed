package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/resilience"
)

var errWebhookTransient = crerr.New("winner webhook transient failure")

type WebhookConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookNotifier announces contest winners to an external endpoint, the
// channel the directory's email/badge pipeline consumes. Delivery is best
// effort behind a circuit breaker; the award itself is already durable by
// the time this runs.
type WebhookNotifier struct {
	client         *http.Client
	url            string
	token          string
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewWebhookNotifier(cfg WebhookConfig, logger *slog.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &WebhookNotifier{
		client: &http.Client{
			Timeout: timeout,
		},
		url:            strings.TrimSpace(cfg.URL),
		token:          strings.TrimSpace(cfg.Token),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type winnerPayload struct {
	PeriodKey string `json:"period_key"`
	EntryID   string `json:"entry_id"`
	EntryName string `json:"entry_name"`
	OwnerID   string `json:"owner_id"`
	Rank      int    `json:"rank"`
	VoteCount int    `json:"vote_count"`
	EndedAt   string `json:"ended_at"`
}

func (n *WebhookNotifier) NotifyWinner(ctx context.Context, w window.ContestWindow, e entry.Entry, rank int) error {
	if n.circuitEnabled {
		if err := n.breaker.Allow(); err != nil {
			n.logger.WarnContext(ctx, "winner webhook circuit breaker rejected request", "state", n.breaker.State())
			return fmt.Errorf("winner webhook is temporarily unavailable: %w", err)
		}
	}

	endpoint, err := validateHTTPURL(n.url)
	if err != nil {
		return crerr.Wrap(err, "invalid WINNER_WEBHOOK_URL")
	}

	body, err := sonic.Marshal(winnerPayload{
		PeriodKey: w.PeriodKey,
		EntryID:   e.ID,
		EntryName: e.Name,
		OwnerID:   e.OwnerID,
		Rank:      rank,
		VoteCount: e.VoteCount,
		EndedAt:   w.EndsAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return crerr.Wrap(err, "marshal winner payload")
	}
	bodyText := truncateForLog(string(body), 4096)
	curlPreview := buildWebhookCurlPreview(endpoint, bodyText, n.token != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", endpoint),
			attribute.String("webhook.request_body", bodyText),
			attribute.String("webhook.request_curl_preview", curlPreview),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create winner webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: deliver winner webhook url=%s: %v", errWebhookTransient, endpoint, err)
		n.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf(
				"%w: deliver winner webhook status=%d url=%s body=%s",
				errWebhookTransient,
				resp.StatusCode,
				endpoint,
				strings.TrimSpace(string(raw)),
			)
			n.recordCircuitResult(callErr)
			return callErr
		}

		callErr := fmt.Errorf(
			"deliver winner webhook status=%d url=%s body=%s",
			resp.StatusCode,
			endpoint,
			strings.TrimSpace(string(raw)),
		)
		n.recordCircuitResult(callErr)
		return callErr
	}

	n.logger.InfoContext(ctx, "winner notification delivered",
		"period_key", w.PeriodKey,
		"entry_id", e.ID,
		"rank", rank,
	)
	n.recordCircuitResult(nil)
	return nil
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

func buildWebhookCurlPreview(endpoint, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(endpoint))
	appendPart("-H")
	appendPart(shellQuote("Content-Type: application/json"))
	if withToken {
		appendPart("-H")
		appendPart(shellQuote("Authorization: Bearer ***"))
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func (n *WebhookNotifier) recordCircuitResult(err error) {
	if !n.circuitEnabled || n.breaker == nil {
		return
	}
	if err == nil {
		n.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errWebhookTransient) {
		n.breaker.RecordFailure()
		return
	}
	n.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
