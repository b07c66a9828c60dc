// Package metrics exports the latest poll of each instance as Prometheus
// metrics.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dm/spm-go/internal/model"
)

const namespace = "spm"

var (
	up = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "up"),
		"Was the last poll of the instance successful.",
		[]string{"instance"}, nil,
	)
	lastPoll = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "last_poll_timestamp_seconds"),
		"Unix time of the last successful poll.",
		[]string{"instance"}, nil,
	)
	reportHealth = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "report", "health"),
		"Health of a report row: 0 OK, 1 Caution, 2 Warning, -1 Unknown.",
		[]string{"instance", "category", "name"}, nil,
	)
	reportWorst = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "report", "worst_health"),
		"Most severe evaluated health in the report.",
		[]string{"instance"}, nil,
	)
	resourceUsage = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "resource", "usage_percent"),
		"Hostwide resource usage in percent.",
		[]string{"instance", "resource"}, nil,
	)
	diskUsage = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "disk", "used_percent"),
		"Used space of a mount point in percent.",
		[]string{"instance", "mount"}, nil,
	)
	splunkdHealth = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "splunkd", "health"),
		"splunkd health feature: 1 green, 0.5 yellow, 0 red.",
		[]string{"instance", "feature"}, nil,
	)
)

type entry struct {
	snap   *model.InstanceSnapshot
	report *model.Report
	err    error
}

// Collector holds the latest poll outcome per instance and implements
// prometheus.Collector.
type Collector struct {
	logger log.Logger

	mu      sync.RWMutex
	entries map[string]entry

	polls      *prometheus.CounterVec
	discovered *prometheus.CounterVec
}

// NewCollector creates a Collector. A nil logger discards output.
func NewCollector(logger log.Logger) *Collector {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Collector{
		logger:  logger,
		entries: make(map[string]entry),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Polls by instance and outcome.",
		}, []string{"instance", "outcome"}),
		discovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_total",
			Help:      "Discovery candidates by final status.",
		}, []string{"status"}),
	}
}

// Update records the outcome of one poll. On error the previous snapshot is
// dropped so stale values are not exported.
func (c *Collector) Update(instance string, snap *model.InstanceSnapshot, report *model.Report, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.entries[instance] = entry{err: err}
		c.polls.WithLabelValues(instance, "error").Inc()
		level.Debug(c.logger).Log("msg", "poll failed", "instance", instance, "err", err)
		return
	}
	c.entries[instance] = entry{snap: snap, report: report}
	c.polls.WithLabelValues(instance, "ok").Inc()
}

// ObserveDiscovery counts a discovery progress event.
func (c *Collector) ObserveDiscovery(ev model.ProgressEvent) {
	c.discovered.WithLabelValues(ev.Status.String()).Inc()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{up, lastPoll, reportHealth, reportWorst, resourceUsage, diskUsage, splunkdHealth} {
		ch <- d
	}
	c.polls.Describe(ch)
	c.discovered.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	instances := make([]string, 0, len(c.entries))
	for k := range c.entries {
		instances = append(instances, k)
	}
	sort.Strings(instances)

	for _, inst := range instances {
		e := c.entries[inst]
		if e.err != nil || e.snap == nil {
			ch <- prometheus.MustNewConstMetric(up, prometheus.GaugeValue, 0, inst)
			continue
		}
		ch <- prometheus.MustNewConstMetric(up, prometheus.GaugeValue, 1, inst)
		ch <- prometheus.MustNewConstMetric(lastPoll, prometheus.GaugeValue, unixSeconds(e.snap.FetchedAt), inst)
		collectSnapshot(ch, inst, e.snap)
		if e.report != nil {
			collectReport(ch, inst, e.report)
		}
	}
	c.polls.Collect(ch)
	c.discovered.Collect(ch)
}

func collectSnapshot(ch chan<- prometheus.Metric, inst string, snap *model.InstanceSnapshot) {
	usage := []struct {
		name string
		v    model.Opt[float64]
	}{
		{"cpu", snap.Resources.CPUUsage},
		{"mem", snap.Resources.MemUsage},
		{"swap", snap.Resources.SwapUsage},
	}
	for _, u := range usage {
		if v, ok := u.v.Get(); ok {
			ch <- prometheus.MustNewConstMetric(resourceUsage, prometheus.GaugeValue, v, inst, u.name)
		}
	}

	for _, p := range snap.DiskPartitions.Items {
		if v, ok := p.UsedPercent.Get(); ok {
			ch <- prometheus.MustNewConstMetric(diskUsage, prometheus.GaugeValue, v, inst, p.Mount)
		}
	}

	features := make([]string, 0, len(snap.FeatureHealth))
	for k := range snap.FeatureHealth {
		features = append(features, k)
	}
	sort.Strings(features)
	for _, f := range features {
		if v, ok := healthColorValue(snap.FeatureHealth[f]); ok {
			ch <- prometheus.MustNewConstMetric(splunkdHealth, prometheus.GaugeValue, v, inst, f)
		}
	}
	if v, ok := healthColorValue(snap.SplunkdHealth); ok {
		ch <- prometheus.MustNewConstMetric(splunkdHealth, prometheus.GaugeValue, v, inst, "splunkd")
	}
}

func collectReport(ch chan<- prometheus.Metric, inst string, r *model.Report) {
	seen := make(map[[2]string]bool, len(r.Rows))
	for _, row := range r.Rows {
		if row.Health == model.HealthNA {
			continue
		}
		key := [2]string{row.Category, row.Name}
		if seen[key] {
			continue
		}
		seen[key] = true
		ch <- prometheus.MustNewConstMetric(reportHealth, prometheus.GaugeValue, float64(row.Health.Rank()), inst, row.Category, row.Name)
	}
	ch <- prometheus.MustNewConstMetric(reportWorst, prometheus.GaugeValue, float64(r.Worst().Rank()), inst)
}

// healthColorValue maps splunkd colors to 1, 0.5 and 0.
func healthColorValue(c model.HealthColor) (float64, bool) {
	switch c {
	case model.HealthColorGreen:
		return 1, true
	case model.HealthColorYellow:
		return 0.5, true
	case model.HealthColorRed:
		return 0, true
	default:
		return 0, false
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
