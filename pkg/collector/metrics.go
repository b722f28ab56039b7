package collector

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/raterudder/froniuscollector/pkg/fronius"
)

type metrics struct {
	registry *prometheus.Registry

	cycles          *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	channelRequests *prometheus.CounterVec
	channelDuration *prometheus.HistogramVec
	pointsWritten   prometheus.Counter
	writeErrors     prometheus.Counter
	connectErrors   prometheus.Counter
	lastCycle       prometheus.Gauge
	lastCycleOK     prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fronius_cycles_total",
			Help: "Poll cycles by outcome",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fronius_cycle_duration_seconds",
			Help:    "Duration of a whole poll cycle",
			Buckets: prometheus.DefBuckets,
		}),
		channelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fronius_channel_requests_total",
			Help: "Requests made to the device by channel and result",
		}, []string{"channel", "result"}),
		channelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fronius_channel_duration_seconds",
			Help:    "Duration of a single request to the device",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),
		pointsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fronius_points_written_total",
			Help: "Points handed to the storage provider successfully",
		}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fronius_write_errors_total",
			Help: "Failed writes to the storage provider",
		}),
		connectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fronius_connect_errors_total",
			Help: "Failed API version bootstraps",
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fronius_last_cycle_timestamp_seconds",
			Help: "Unix time the last poll cycle started",
		}),
		lastCycleOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fronius_last_cycle_success",
			Help: "Whether the last poll cycle fully succeeded (1 = success, 0 = failure)",
		}),
	}
	m.registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.channelRequests,
		m.channelDuration,
		m.pointsWritten,
		m.writeErrors,
		m.connectErrors,
		m.lastCycle,
		m.lastCycleOK,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// errorResult labels an error returned by the core.
func errorResult(err error) string {
	var (
		reqErr  *fronius.RequestError
		decErr  *fronius.DecodeError
		respErr *fronius.ResponseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &respErr):
		if respErr.Status.Code == fronius.StatusDeviceNotAvailable {
			return "not_available"
		}
		return "response_error"
	case errors.As(err, &reqErr):
		return "request_error"
	case errors.As(err, &decErr):
		return "decode_error"
	default:
		return "error"
	}
}

func (m *metrics) observeChannel(ch Channel, d time.Duration, err error) {
	m.channelRequests.WithLabelValues(string(ch), errorResult(err)).Inc()
	m.channelDuration.WithLabelValues(string(ch)).Observe(d.Seconds())
}

func (m *metrics) observeCycle(res Result) {
	result := "ok"
	switch {
	case !res.Connected || res.WriteError != "":
		result = "failed"
	case !res.OK():
		result = "partial"
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(res.Duration.Seconds())
	m.lastCycle.Set(float64(res.Time.Unix()))
	if result == "ok" {
		m.lastCycleOK.Set(1)
	} else {
		m.lastCycleOK.Set(0)
	}
}

// pointCollector exports the numeric fields of the latest cycle as gauges.
type pointCollector struct {
	c     *Collector
	value *prometheus.Desc
	age   *prometheus.Desc
}

func newPointCollector(c *Collector) *pointCollector {
	return &pointCollector{
		c: c,
		value: prometheus.NewDesc(
			"fronius_point_value",
			"Latest value of a numeric point field",
			[]string{"measurement", "series", "field"},
			nil,
		),
		age: prometheus.NewDesc(
			"fronius_point_age_seconds",
			"Seconds since the latest points were read",
			nil,
			nil,
		),
	}
}

// Describe implements prometheus.Collector
func (pc *pointCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- pc.value
	ch <- pc.age
}

// Collect implements prometheus.Collector
func (pc *pointCollector) Collect(ch chan<- prometheus.Metric) {
	res, ok := pc.c.Latest()
	if !ok || !res.Connected {
		return
	}
	ch <- prometheus.MustNewConstMetric(pc.age, prometheus.GaugeValue, time.Since(res.Time).Seconds())
	for _, p := range res.Points {
		series := p.Series()
		for _, field := range slices.Sorted(maps.Keys(p.Fields)) {
			var v float64
			switch tv := p.Fields[field].(type) {
			case float64:
				v = tv
			case int64:
				v = float64(tv)
			case bool:
				if tv {
					v = 1
				}
			default:
				continue
			}
			ch <- prometheus.MustNewConstMetric(pc.value, prometheus.GaugeValue, v, p.Measurement, series, field)
		}
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.metrics.registry
}
