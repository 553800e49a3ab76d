package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/adaptedu-backend/internal/platform/envutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests    *CounterVec
	apiLatency     *HistogramVec
	apiInflight    *Gauge
	apiReqTotal    *Counter
	apiReqError    *Counter
	llmRequests    *CounterVec
	llmLatency     *HistogramVec
	llmTokens      *CounterVec
	pipelineStages *CounterVec
	pipelineTime   *HistogramVec
	mediaRequests  *CounterVec
	activeSessions *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current is nil until Init runs with metrics enabled; every method is
// nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("adaptedu_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"adaptedu_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("adaptedu_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("adaptedu_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("adaptedu_api_requests_error_total", "API requests answered with a 5xx status."),
		llmRequests: NewCounterVec("adaptedu_llm_requests_total", "LLM requests by model/endpoint/status.", []string{"model", "endpoint", "status"}),
		llmLatency: NewHistogramVec(
			"adaptedu_llm_request_duration_seconds",
			"LLM request latency in seconds by model/endpoint/status.",
			[]string{"model", "endpoint", "status"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		),
		llmTokens:      NewCounterVec("adaptedu_llm_tokens_total", "LLM tokens by model/kind.", []string{"model", "kind"}),
		pipelineStages: NewCounterVec("adaptedu_pipeline_stage_total", "Course pipeline stage outcomes.", []string{"stage", "status"}),
		pipelineTime: NewHistogramVec(
			"adaptedu_pipeline_stage_duration_seconds",
			"Course pipeline stage latency in seconds.",
			[]string{"stage", "status"},
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		mediaRequests:  NewCounterVec("adaptedu_media_requests_total", "Speech synthesis and recognition calls.", []string{"kind", "status"}),
		activeSessions: NewGaugeVec("adaptedu_active_sessions", "Open sessions by kind.", []string{"kind"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.pipelineStages, m.pipelineTime, m.mediaRequests, m.activeSessions,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// StartServer serves /metrics on its own listener until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orUnknown(model)
	endpoint = orUnknown(endpoint)
	status = strings.TrimSpace(status)
	if status == "" {
		status = "0"
	}
	m.llmRequests.Inc(model, endpoint, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, endpoint, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

// ObservePipelineStage records one analyze/generate/publish/extract outcome.
func (m *Metrics) ObservePipelineStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	stage = orUnknown(stage)
	status = orUnknown(status)
	m.pipelineStages.Inc(stage, status)
	m.pipelineTime.Observe(dur.Seconds(), stage, status)
}

func (m *Metrics) IncMedia(kind, status string) {
	if m == nil {
		return
	}
	m.mediaRequests.Inc(orUnknown(kind), orUnknown(status))
}

func (m *Metrics) SetActiveSessions(kind string, n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n), orUnknown(kind))
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

// StatusLabel maps an error to the status label used by stage metrics.
func StatusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
