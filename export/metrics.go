package export

import (
	"fmt"

	"meshlog/parser"
	"meshlog/stats"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics holds the collectors describing one analysis run. Each run gets
// its own registry so nothing leaks between runs or tests.
type RunMetrics struct {
	reg *prometheus.Registry

	lines        prometheus.Counter
	events       prometheus.Counter
	relayed      prometheus.Counter
	errorLines   prometheus.Counter
	relayNodes   prometheus.Gauge
	delay        prometheus.Histogram
	nodeMessages *prometheus.GaugeVec
	quality      *prometheus.GaugeVec
}

// NewRunMetrics registers the run collectors on a fresh registry.
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		reg: prometheus.NewRegistry(),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlog_input_lines_total",
			Help: "Lines read from the gateway log.",
		}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlog_sensor_events_total",
			Help: "Sensor status reports extracted from the log.",
		}),
		relayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlog_relayed_messages_total",
			Help: "Relay lines attributed to a node.",
		}),
		errorLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlog_error_lines_total",
			Help: "Lines containing ERROR or FAILED.",
		}),
		relayNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meshlog_relay_nodes",
			Help: "Distinct nodes that relayed at least one message.",
		}),
		delay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meshlog_delivery_delay_ms",
			Help:    "End-to-end delivery delay reported by sensor messages.",
			Buckets: prometheus.ExponentialBuckets(25, 2, 10),
		}),
		nodeMessages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meshlog_node_messages",
			Help: "Sensor reports received per node.",
		}, []string{"node"}),
		quality: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meshlog_quality_window_ratio",
			Help: "Fraction of reports inside the target growing window.",
		}, []string{"window"}),
	}
	m.reg.MustRegister(m.lines, m.events, m.relayed, m.errorLines, m.relayNodes, m.delay, m.nodeMessages, m.quality)
	return m
}

// Observe loads the parse result and its statistics into the collectors.
func (m *RunMetrics) Observe(res parser.Result, sum stats.Summary) {
	m.lines.Add(float64(res.Lines))
	m.events.Add(float64(len(res.Events)))
	m.relayed.Add(float64(res.Relays.Total()))
	m.errorLines.Add(float64(len(res.Errors)))
	m.relayNodes.Set(float64(res.Relays.Len()))
	for _, ev := range res.Events {
		m.delay.Observe(float64(ev.DelayMS))
	}
	for _, d := range sum.Delivery {
		m.nodeMessages.WithLabelValues(d.Node).Set(float64(d.Messages))
	}
	m.quality.WithLabelValues("temperature").Set(sum.Quality.TemperatureOK)
	m.quality.WithLabelValues("humidity").Set(sum.Quality.HumidityOK)
	m.quality.WithLabelValues("both").Set(sum.Quality.BothOK)
}

// Gatherer exposes the registry.
func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteFile writes the collectors in the node_exporter textfile format.
func (m *RunMetrics) WriteFile(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
