package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/marocz/wearguard/server/internal/metrics"
	"github.com/marocz/wearguard/server/internal/risk"
)

const defaultTimeout = 10 * time.Second

// Stats summarises one scrape of a wearguard instance.
type Stats struct {
	ScrapedAt time.Time `json:"scraped_at"`

	// Predictions counts served predictions per risk level.
	Predictions map[risk.Band]float64 `json:"predictions"`

	// Errors counts failed requests per reason.
	Errors map[string]float64 `json:"errors"`

	// MeanProbability is the average failure probability served so far.
	// Zero when nothing has been served.
	MeanProbability float64 `json:"mean_probability"`

	// Reloads counts model reload attempts per result.
	Reloads map[string]float64 `json:"reloads"`
}

// Total returns the number of predictions across all risk levels.
func (s *Stats) Total() float64 {
	var total float64
	for _, v := range s.Predictions {
		total += v
	}
	return total
}

// Client fetches metrics over HTTP.
type Client struct {
	http *http.Client
}

// New returns a Client. A nil hc gets a client with a 10s timeout.
func New(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{http: hc}
}

// Fetch scrapes url and returns the summary.
func (c *Client) Fetch(ctx context.Context, url string) (*Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("scrape: build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape: unexpected status %d", resp.StatusCode)
	}

	mfs, err := parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return summarise(mfs, time.Now().UTC()), nil
}

// parse decodes a Prometheus text exposition. A partial parse that still
// yielded families is treated as success.
func parse(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("scrape: parse prometheus text: %w", err)
	}
	return mfs, nil
}

func summarise(mfs map[string]*dto.MetricFamily, now time.Time) *Stats {
	st := &Stats{
		ScrapedAt:   now,
		Predictions: make(map[risk.Band]float64, len(risk.Bands)),
		Errors:      byLabel(mfs[metrics.NameErrors], metrics.LabelReason),
		Reloads:     byLabel(mfs[metrics.NameModelReloads], metrics.LabelReloadResult),
	}
	for _, b := range risk.Bands {
		st.Predictions[b] = 0
	}
	for level, v := range byLabel(mfs[metrics.NamePredictions], metrics.LabelRiskLevel) {
		st.Predictions[risk.Band(level)] = v
	}

	if mf := mfs[metrics.NameProbability]; mf != nil && len(mf.GetMetric()) > 0 {
		h := mf.GetMetric()[0].GetHistogram()
		if n := h.GetSampleCount(); n > 0 {
			st.MeanProbability = h.GetSampleSum() / float64(n)
		}
	}
	return st
}

// byLabel sums a family's counter, gauge or untyped values grouped by label.
// Returns an empty map if mf is nil (metric not present in the scrape).
func byLabel(mf *dto.MetricFamily, label string) map[string]float64 {
	out := make(map[string]float64)
	if mf == nil {
		return out
	}
	for _, m := range mf.GetMetric() {
		var key string
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label {
				key = lp.GetValue()
			}
		}
		switch {
		case m.Counter != nil:
			out[key] += m.Counter.GetValue()
		case m.Gauge != nil:
			out[key] += m.Gauge.GetValue()
		case m.Untyped != nil:
			out[key] += m.Untyped.GetValue()
		}
	}
	return out
}
