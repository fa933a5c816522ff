package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/marocz/wearguard/server/internal/risk"
)

// deliveryTimeout bounds one webhook POST.
const deliveryTimeout = 10 * time.Second

// bandStyle is how a risk band reads in chat notifications.
type bandStyle struct {
	tag      string
	color    string
	severity string
}

var bandStyles = map[risk.Band]bandStyle{
	risk.Red:    {tag: "FAILURE LIKELY", color: "FF4F6A", severity: "critical"},
	risk.Yellow: {tag: "INSPECT SOON", color: "FFAB40", severity: "warning"},
	risk.Green:  {tag: "HEALTHY", color: "3FB950", severity: "info"},
}

func styleOf(b risk.Band) bandStyle {
	if s, ok := bandStyles[b]; ok {
		return s
	}
	return bandStyle{tag: strings.ToUpper(string(b)), color: "8B949E", severity: "info"}
}

// deliver posts a to every webhook whose URL variable is set.
// Failures are logged per target and never reach the predicting request.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		body, err := json.Marshal(payload(wh.Type, a))
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			err = e.notify(ctx, url, body)
			cancel()
		}
		log := slog.With("type", wh.Type, "risk_level", a.RiskLevel, "alert", a.ID)
		if err != nil {
			log.Error("alerts: webhook delivery failed", "err", err)
			continue
		}
		log.Debug("alerts: webhook delivered")
	}
}

// payload renders a in the body format the target type expects.
// Unknown types are rejected by config validation; they fall back to the
// generic envelope.
func payload(kind string, a *Alert) any {
	st := styleOf(a.RiskLevel)
	recs := "none"
	if len(a.Recommendations) > 0 {
		recs = strings.Join(a.Recommendations, ", ")
	}
	prob := fmt.Sprintf("%.1f%%", a.Probability*100)

	switch kind {
	case "slack":
		return map[string]any{
			"text": fmt.Sprintf("*%s* %s", st.tag, a.Message),
			"attachments": []map[string]any{{
				"color": "#" + st.color,
				"fields": []map[string]any{
					{"title": "Failure probability", "value": prob, "short": true},
					{"title": "Risk level", "value": string(a.RiskLevel), "short": true},
					{"title": "Actions", "value": recs},
				},
			}},
		}
	case "teams":
		return map[string]any{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": st.color,
			"summary":    fmt.Sprintf("%s failure risk %s", a.RiskLevel, prob),
			"title":      fmt.Sprintf("wearguard: %s", st.tag),
			"sections": []map[string]any{{
				"facts": []map[string]string{
					{"name": "Failure probability", "value": prob},
					{"name": "Actions", "value": recs},
					{"name": "Request", "value": a.RequestID},
				},
			}},
		}
	default:
		return map[string]any{
			"source":   "wearguard",
			"severity": st.severity,
			"alert":    a,
		}
	}
}

func (e *Engine) notify(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("alerts: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "wearguard-alerts")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("alerts: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("alerts: webhook answered %s", resp.Status)
	}
	return nil
}
