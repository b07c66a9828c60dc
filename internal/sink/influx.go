// Package sink writes poll results to InfluxDB.
package sink

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/model"
)

// Influx writes one batch of points per poll through the blocking write API.
type Influx struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	measurement string
	logger      log.Logger
}

// NewInflux creates a sink for cfg. It does not contact the server.
func NewInflux(cfg config.InfluxDB, logger log.Logger) (*Influx, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: influxdb.url is empty", config.ErrInvalidConfig)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: influxdb.bucket is empty", config.ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	measurement := cfg.Measurement
	if measurement == "" {
		measurement = config.Default().InfluxDB.Measurement
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: measurement,
		logger:      logger,
	}, nil
}

// Store writes the usage figures of snap and the row healths of report.
func (s *Influx) Store(ctx context.Context, snap *model.InstanceSnapshot, report *model.Report) error {
	points := Points(s.measurement, snap, report)
	if len(points) == 0 {
		return nil
	}
	level.Debug(s.logger).Log("msg", "writing points", "instance", snap.Address(), "points", len(points))
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

// Close releases the client's idle connections.
func (s *Influx) Close() {
	s.client.Close()
}

// Points converts one poll into InfluxDB points: a resource point, one point
// per known mount and one point per evaluated report row. All share the
// snapshot's fetch time.
func Points(measurement string, snap *model.InstanceSnapshot, report *model.Report) []*write.Point {
	instance := snap.Address()
	ts := snap.FetchedAt
	var points []*write.Point

	res := influxdb2.NewPointWithMeasurement(measurement + "_resources").
		AddTag("instance", instance).
		SetTime(ts)
	fields := 0
	usage := []struct {
		field string
		v     model.Opt[float64]
	}{
		{"cpu_percent", snap.Resources.CPUUsage},
		{"mem_percent", snap.Resources.MemUsage},
		{"swap_percent", snap.Resources.SwapUsage},
	}
	for _, u := range usage {
		if f, ok := u.v.Get(); ok {
			res.AddField(u.field, f)
			fields++
		}
	}
	if fields > 0 {
		points = append(points, res)
	}

	for _, p := range snap.DiskPartitions.Items {
		used, ok := p.UsedPercent.Get()
		if !ok {
			continue
		}
		points = append(points, influxdb2.NewPointWithMeasurement(measurement+"_disk").
			AddTag("instance", instance).
			AddTag("mount", p.Mount).
			AddField("used_percent", used).
			AddField("total_gb", p.TotalGB).
			SetTime(ts))
	}

	if report != nil {
		for _, row := range report.Rows {
			if row.Health == model.HealthNA {
				continue
			}
			points = append(points, influxdb2.NewPointWithMeasurement(measurement).
				AddTag("instance", instance).
				AddTag("category", row.Category).
				AddTag("name", row.Name).
				AddField("health", row.Health.String()).
				AddField("rank", row.Health.Rank()).
				AddField("value", row.Value).
				SetTime(ts))
		}
	}
	return points
}
