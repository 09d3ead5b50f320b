package api

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type listRequestMetrics struct {
	logger         *log.Logger
	route          string
	start          time.Time
	fetchDuration  time.Duration
	encodeDuration time.Duration
	itemsReturned  int
	errorStage     string
}

func newListRequestMetrics(route string, logger *log.Logger) *listRequestMetrics {
	return &listRequestMetrics{
		logger: logger,
		route:  route,
		start:  time.Now(),
	}
}

func (m *listRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *listRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *listRequestMetrics) SetItemsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.itemsReturned = count
}

func (m *listRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *listRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":          m.route,
		"status":         status,
		"total_ms":       durationToMillis(time.Since(m.start)),
		"items_returned": m.itemsReturned,
	}

	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("tasks.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
