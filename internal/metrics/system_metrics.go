package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eduline/billing-service/pkg/logger"
)

// SystemMetrics интерфейс для системных метрик
type SystemMetrics interface {
	StartRecording(interval time.Duration)
	Stop()
}

type systemMetrics struct {
	log         *logger.Logger
	goroutines  prometheus.Gauge
	memoryAlloc prometheus.Gauge
	memorySys   prometheus.Gauge
	gcRuns      prometheus.Gauge
	stopCh      chan struct{}
}

// NewSystemMetrics создает новые системные метрики
func NewSystemMetrics(registry *prometheus.Registry, log *logger.Logger) SystemMetrics {
	goroutines := promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "system_goroutines",
			Help: "Current number of goroutines",
		},
	)

	memoryAlloc := promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "system_memory_alloc_bytes",
			Help: "Currently allocated memory in bytes",
		},
	)

	memorySys := promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "system_memory_system_bytes",
			Help: "Total memory obtained from system in bytes",
		},
	)

	gcRuns := promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "system_gc_runs_total",
			Help: "Total number of completed garbage collections",
		},
	)

	return &systemMetrics{
		log:         log,
		goroutines:  goroutines,
		memoryAlloc: memoryAlloc,
		memorySys:   memorySys,
		gcRuns:      gcRuns,
		stopCh:      make(chan struct{}),
	}
}

// StartRecording запускает периодический сбор системных метрик
func (m *systemMetrics) StartRecording(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.record()
			case <-m.stopCh:
				return
			}
		}
	}()
	m.log.Debug("System metrics recording started with interval %s", interval)
}

// Stop останавливает сбор системных метрик
func (m *systemMetrics) Stop() {
	close(m.stopCh)
}

func (m *systemMetrics) record() {
	m.goroutines.Set(float64(runtime.NumGoroutine()))

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.memoryAlloc.Set(float64(ms.Alloc))
	m.memorySys.Set(float64(ms.Sys))
	m.gcRuns.Set(float64(ms.NumGC))
}
