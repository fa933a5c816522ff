package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marocz/wearguard/server/internal/config"
	"github.com/marocz/wearguard/server/internal/predict"
	"github.com/marocz/wearguard/server/internal/risk"
)

const (
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert is one high-risk prediction that passed the cooldown.
type Alert struct {
	ID              string    `json:"id"`
	RiskLevel       risk.Band `json:"risk_level"`
	Probability     float64   `json:"failure_probability"`
	Recommendations []string  `json:"recommendations"`
	Message         string    `json:"message"`
	RequestID       string    `json:"request_id,omitempty"`
	FiredAt         time.Time `json:"fired_at"`
}

// Engine decides which predictions raise alerts and delivers them.
//
// Engine is safe for concurrent use.
type Engine struct {
	enabled  bool
	min      risk.Band
	cooldown time.Duration
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	lastFire map[risk.Band]time.Time
	history  []*Alert
	client   *http.Client
	now      func() time.Time
	wg       sync.WaitGroup
}

// New creates an Engine from the alert configuration.
// A disabled configuration yields an Engine whose Evaluate is a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		enabled:  cfg.Enabled(),
		min:      risk.Band(cfg.MinLevel),
		cooldown: cfg.Cooldown,
		webhooks: cfg.Webhooks,
		lastFire: make(map[risk.Band]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Evaluate raises an alert for res if its band is at or above the minimum
// level and the level is not cooling down. Webhook delivery is asynchronous.
// Returns the alert, or nil when none fired.
func (e *Engine) Evaluate(res *predict.Result, requestID string) *Alert {
	if !e.enabled || res == nil || !res.Band.AtLeast(e.min) {
		return nil
	}

	now := e.now()
	e.mu.Lock()
	if last, ok := e.lastFire[res.Band]; ok && now.Sub(last) < e.cooldown {
		e.mu.Unlock()
		return nil
	}

	ids := make([]string, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		ids = append(ids, r.ID)
	}
	a := &Alert{
		ID:              fmt.Sprintf("%s:%d", res.Band, now.UnixNano()),
		RiskLevel:       res.Band,
		Probability:     res.Probability,
		Recommendations: ids,
		Message:         message(res.Band, res.Probability, ids),
		RequestID:       requestID,
		FiredAt:         now,
	}
	e.lastFire[res.Band] = now
	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	alertCopy := *a
	e.mu.Unlock()

	slog.Warn("alert fired",
		"risk_level", a.RiskLevel,
		"probability", a.Probability,
		"request_id", requestID,
	)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.deliver(&alertCopy)
	}()
	out := alertCopy
	out.Recommendations = append([]string(nil), a.Recommendations...)
	return &out
}

// Recent returns copies of alerts fired within the past hour, newest first.
func (e *Engine) Recent() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.history))
	for _, a := range e.history {
		if a.FiredAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Wait blocks until all in-flight webhook deliveries have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func message(band risk.Band, p float64, ids []string) string {
	msg := fmt.Sprintf("[%s] failure probability %.3f", band, p)
	if len(ids) > 0 {
		msg += ": " + strings.Join(ids, ", ")
	}
	return msg
}
