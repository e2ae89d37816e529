package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type SLOConfig struct {
	Enabled  bool
	Interval time.Duration
	Window   time.Duration

	APIAvailabilityTarget float64
	APILatencyTarget      float64
	UploadSuccessTarget   float64
	SceneLoadTarget       float64

	AlertWebhookURL  string
	AlertOwner       string
	AlertRunbookURL  string
	AlertMinInterval time.Duration
	AlertBurnWarn    float64
	AlertBurnCrit    float64
}

func DefaultSLOConfig() SLOConfig {
	return SLOConfig{
		Interval:              time.Minute,
		Window:                30 * 24 * time.Hour,
		APIAvailabilityTarget: 0.995,
		APILatencyTarget:      0.95,
		UploadSuccessTarget:   0.98,
		SceneLoadTarget:       0.95,
		AlertMinInterval:      15 * time.Minute,
		AlertBurnWarn:         2,
		AlertBurnCrit:         10,
	}
}

type rollingSum struct {
	values []float64
	idx    int
	total  float64
}

func newRollingSum(size int) *rollingSum {
	if size < 1 {
		size = 1
	}
	return &rollingSum{values: make([]float64, size)}
}

func (r *rollingSum) add(v float64) {
	r.total += v - r.values[r.idx]
	r.values[r.idx] = v
	r.idx = (r.idx + 1) % len(r.values)
}

// sloSeries tracks one total/bad counter pair over the rolling window.
type sloSeries struct {
	name   string
	target float64
	total  func() float64
	bad    func() float64

	prevTotal float64
	prevBad   float64
	sumTotal  *rollingSum
	sumBad    *rollingSum
}

func (s *sloSeries) step() (total, bad float64) {
	t, b := s.total(), s.bad()
	s.sumTotal.add(delta(t, s.prevTotal))
	s.sumBad.add(delta(b, s.prevBad))
	s.prevTotal, s.prevBad = t, b
	return s.sumTotal.total, s.sumBad.total
}

type SLOEvaluator struct {
	metrics *Metrics
	log     *logger.Logger
	cfg     SLOConfig
	http    *retryablehttp.Client

	windowLabel string
	series      []*sloSeries

	alertMu    sync.Mutex
	lastAlerts map[string]time.Time
}

func (m *Metrics) StartSLOEvaluator(ctx context.Context, log *logger.Logger, cfg SLOConfig, client *retryablehttp.Client) {
	if m == nil || !cfg.Enabled {
		return
	}
	eval := newSLOEvaluator(m, log, cfg, client)
	go eval.run(ctx)
	if log != nil {
		log.Info("SLO evaluator started", "window", eval.windowLabel, "interval", eval.cfg.Interval.String())
	}
}

func newSLOEvaluator(m *Metrics, log *logger.Logger, cfg SLOConfig, client *retryablehttp.Client) *SLOEvaluator {
	def := DefaultSLOConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Window < time.Hour {
		cfg.Window = 24 * time.Hour
	}
	if cfg.AlertMinInterval <= 0 {
		cfg.AlertMinInterval = def.AlertMinInterval
	}
	size := int(cfg.Window / cfg.Interval)
	e := &SLOEvaluator{
		metrics:     m,
		log:         log,
		cfg:         cfg,
		http:        client,
		windowLabel: formatWindowLabel(cfg.Window),
		lastAlerts:  map[string]time.Time{},
	}
	add := func(name string, target float64, total, bad func() float64) {
		e.series = append(e.series, &sloSeries{
			name:     name,
			target:   clamp01(target),
			total:    total,
			bad:      bad,
			sumTotal: newRollingSum(size),
			sumBad:   newRollingSum(size),
		})
	}
	add("api_availability", cfg.APIAvailabilityTarget, m.apiReqTotal.Value, m.apiReqError.Value)
	add("api_latency", cfg.APILatencyTarget, m.apiReqTotal.Value, func() float64 {
		return m.apiReqTotal.Value() - m.apiReqGood.Value()
	})
	add("upload_success", cfg.UploadSuccessTarget, m.uploadTotal.Value, m.uploadFailed.Value)
	add("scene_load_success", cfg.SceneLoadTarget, m.sceneLoadTotal.Value, m.sceneLoadFailed.Value)
	return e
}

func (e *SLOEvaluator) run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.evaluate(ctx)
		}
	}
}

func (e *SLOEvaluator) evaluate(ctx context.Context) {
	for _, s := range e.series {
		total, bad := s.step()
		e.evalSLO(ctx, s.name, total, bad, s.target)
	}
}

func (e *SLOEvaluator) evalSLO(ctx context.Context, name string, total, bad, target float64) {
	if total <= 0 {
		e.metrics.sloCompliance.Set(1, name, e.windowLabel)
		e.metrics.sloBudget.Set(1, name, e.windowLabel)
		e.metrics.sloBurn.Set(0, name, e.windowLabel)
		return
	}
	sli := clamp01(1 - bad/total)
	burn := 0.0
	if target < 1 {
		burn = (1 - sli) / (1 - target)
	}
	budget := clamp01(1 - burn)
	e.metrics.sloCompliance.Set(sli, name, e.windowLabel)
	e.metrics.sloBudget.Set(budget, name, e.windowLabel)
	e.metrics.sloBurn.Set(burn, name, e.windowLabel)

	if e.cfg.AlertWebhookURL == "" || e.cfg.AlertOwner == "" {
		return
	}
	severity := ""
	switch {
	case e.cfg.AlertBurnCrit > 0 && burn >= e.cfg.AlertBurnCrit:
		severity = "critical"
	case e.cfg.AlertBurnWarn > 0 && burn >= e.cfg.AlertBurnWarn:
		severity = "warning"
	}
	if severity == "" {
		return
	}
	key := name + ":" + severity
	e.alertMu.Lock()
	last := e.lastAlerts[key]
	if !last.IsZero() && time.Since(last) < e.cfg.AlertMinInterval {
		e.alertMu.Unlock()
		return
	}
	e.lastAlerts[key] = time.Now()
	e.alertMu.Unlock()
	e.sendAlert(ctx, name, severity, sli, target, burn, budget)
}

func (e *SLOEvaluator) sendAlert(ctx context.Context, name, severity string, sli, target, burn, budget float64) {
	payload := map[string]any{
		"title":                  "SLO burn rate alert",
		"severity":               severity,
		"owner":                  e.cfg.AlertOwner,
		"slo":                    name,
		"window":                 e.windowLabel,
		"sli":                    sli,
		"target":                 target,
		"burn_rate":              burn,
		"error_budget_remaining": budget,
		"runbook":                e.cfg.AlertRunbookURL,
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, e.cfg.AlertWebhookURL, bytes.NewReader(body))
	if err != nil {
		if e.log != nil {
			e.log.Warn("slo alert request build failed", "error", err, "slo", name)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := e.http
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = nil
	}
	resp, err := client.Do(req)
	if err != nil {
		if e.log != nil {
			e.log.Warn("slo alert post failed", "error", err, "slo", name)
		}
		return
	}
	_ = resp.Body.Close()
	if e.log != nil {
		e.log.Info("slo alert sent", "slo", name, "severity", severity, "status", resp.StatusCode)
	}
}

func delta(current, prev float64) float64 {
	if current < prev {
		return current
	}
	return current - prev
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func formatWindowLabel(window time.Duration) string {
	hours := int(window.Hours())
	switch {
	case hours >= 24 && hours%24 == 0:
		return strconv.Itoa(hours/24) + "d"
	case hours >= 1:
		return strconv.Itoa(hours) + "h"
	}
	return strconv.Itoa(int(window.Minutes())) + "m"
}
