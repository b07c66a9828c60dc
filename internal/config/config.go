package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dm/spm-go/internal/model"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full contents of spm.yml.
type Config struct {
	Healthchecks Healthchecks      `mapstructure:"-" yaml:"healthchecks"`
	Topology     Topology          `mapstructure:"topology" yaml:"topology"`
	Discovery    Discovery         `mapstructure:"discovery" yaml:"discovery"`
	Serve        Serve             `mapstructure:"serve" yaml:"serve"`
	InfluxDB     InfluxDB          `mapstructure:"influxdb" yaml:"influxdb"`
	Instances    []model.Candidate `mapstructure:"instances" yaml:"instances"`
}

// Discovery controls how candidates are contacted.
type Discovery struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Insecure       bool          `mapstructure:"insecure" yaml:"insecure"`
}

// Serve configures the metrics exporter loop.
type Serve struct {
	Listen   string        `mapstructure:"listen" yaml:"listen"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// InfluxDB configures the optional time-series sink. An empty URL disables it.
type InfluxDB struct {
	URL         string `mapstructure:"url" yaml:"url"`
	Token       string `mapstructure:"token" yaml:"token"`
	Org         string `mapstructure:"org" yaml:"org"`
	Bucket      string `mapstructure:"bucket" yaml:"bucket"`
	Measurement string `mapstructure:"measurement" yaml:"measurement"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Healthchecks: DefaultHealthchecks(),
		Topology:     DefaultTopology(),
		Discovery: Discovery{
			RequestTimeout: 10 * time.Second,
			Insecure:       true,
		},
		Serve: Serve{
			Listen:   ":9816",
			Interval: time.Minute,
		},
		InfluxDB: InfluxDB{
			Measurement: "splunk_health",
		},
		Instances: []model.Candidate{},
	}
}

// SetDefaults registers every leaf of Default on v so partially written
// sections merge with the built-in values.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("topology.width", d.Topology.Width)
	v.SetDefault("topology.height", d.Topology.Height)
	v.SetDefault("topology.spacing", d.Topology.Spacing)
	v.SetDefault("topology.resolve_dns", d.Topology.ResolveDNS)
	for name, b := range d.Topology.Buckets {
		prefix := "topology.buckets." + name + "."
		v.SetDefault(prefix+"enabled", b.Enabled)
		v.SetDefault(prefix+"color", b.Color)
		v.SetDefault(prefix+"layer_y", b.LayerY)
		v.SetDefault(prefix+"align", b.Align)
	}
	for name, on := range d.Topology.Rules {
		v.SetDefault("topology.rules."+name, on)
	}
	for kind, color := range d.Topology.EdgeColors {
		v.SetDefault("topology.edge_colors."+kind, color)
	}
	v.SetDefault("discovery.request_timeout", d.Discovery.RequestTimeout)
	v.SetDefault("discovery.insecure", d.Discovery.Insecure)
	v.SetDefault("serve.listen", d.Serve.Listen)
	v.SetDefault("serve.interval", d.Serve.Interval)
	v.SetDefault("influxdb.measurement", d.InfluxDB.Measurement)
}

// NewViper returns a viper instance reading path, or spm.yml from the
// working directory and $HOME/.config/spm when path is empty. A missing
// default config file is not an error. SPM_ environment variables override
// file values (topology.spacing -> SPM_TOPOLOGY_SPACING).
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spm")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "spm"))
		}
	}

	v.SetEnvPrefix("SPM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load builds a Config from v, merging configured healthchecks over the
// defaults.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	hc, err := loadHealthchecks(v)
	if err != nil {
		return nil, err
	}
	cfg.Healthchecks = hc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadHealthchecks(v *viper.Viper) (Healthchecks, error) {
	hc := DefaultHealthchecks()

	raw := map[string]any{}
	for name := range v.GetStringMap("healthchecks") {
		raw[name] = v.Get("healthchecks." + name)
	}
	for name := range hc {
		if v.IsSet("healthchecks." + name) {
			raw[name] = v.Get("healthchecks." + name)
		}
	}

	parsed, err := ParseHealthchecks(raw)
	if err != nil {
		return nil, err
	}
	for name, t := range parsed {
		hc[name] = t
	}
	return hc, nil
}

// Validate checks the topology canvas, the poll interval and the instance
// list.
func (c *Config) Validate() error {
	t := c.Topology
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("%w: topology canvas must be positive, got %gx%g", ErrInvalidConfig, t.Width, t.Height)
	}
	if t.Spacing <= 0 {
		return fmt.Errorf("%w: topology.spacing must be positive", ErrInvalidConfig)
	}
	for name, b := range t.Buckets {
		switch b.Align {
		case AlignLeft, AlignRight, AlignCenter, "":
		default:
			return fmt.Errorf("%w: topology.buckets.%s.align %q", ErrInvalidConfig, name, b.Align)
		}
	}
	if c.Serve.Interval <= 0 {
		return fmt.Errorf("%w: serve.interval must be positive", ErrInvalidConfig)
	}
	for i, inst := range c.Instances {
		if inst.Address == "" {
			return fmt.Errorf("%w: instances[%d] has no address", ErrInvalidConfig, i)
		}
	}
	return nil
}

// WriteDefault writes the default configuration as YAML.
func WriteDefault(w io.Writer) error {
	return Write(w, Default())
}

// Write encodes cfg as YAML with two-space indentation.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

type candidateFile struct {
	Instances []model.Candidate `yaml:"instances"`
}

// LoadCandidates decodes a discovery candidate list. Unknown fields are
// rejected.
func LoadCandidates(r io.Reader) ([]model.Candidate, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f candidateFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: candidate list is empty", ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for i, c := range f.Instances {
		if c.Address == "" {
			return nil, fmt.Errorf("%w: instances[%d] has no address", ErrInvalidConfig, i)
		}
	}
	return f.Instances, nil
}

// SafeConfig guards a Config that may be reloaded while readers use it.
type SafeConfig struct {
	sync.RWMutex
	C                   *Config
	configReloadSuccess prometheus.Gauge
	configReloadSeconds prometheus.Gauge
}

// NewSafeConfig returns a SafeConfig holding the defaults and registers its
// reload gauges on reg.
func NewSafeConfig(reg prometheus.Registerer) *SafeConfig {
	configReloadSuccess := promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Namespace: "spm",
		Name:      "config_last_reload_successful",
		Help:      "spm config loaded successfully.",
	})
	configReloadSeconds := promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Namespace: "spm",
		Name:      "config_last_reload_success_timestamp_seconds",
		Help:      "Timestamp of the last successful configuration reload.",
	})
	return &SafeConfig{C: Default(), configReloadSuccess: configReloadSuccess, configReloadSeconds: configReloadSeconds}
}

// ReloadConfig re-reads the config file behind v and swaps it in.
func (sc *SafeConfig) ReloadConfig(v *viper.Viper, logger log.Logger) (err error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	defer func() {
		if err != nil {
			sc.configReloadSuccess.Set(0)
		} else {
			sc.configReloadSuccess.Set(1)
			sc.configReloadSeconds.SetToCurrentTime()
		}
	}()

	if v.ConfigFileUsed() != "" {
		if err = v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	c, err := Load(v)
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "config loaded", "file", v.ConfigFileUsed(), "instances", len(c.Instances))

	sc.Lock()
	sc.C = c
	sc.Unlock()
	return nil
}

// Get returns the current config.
func (sc *SafeConfig) Get() *Config {
	sc.RLock()
	defer sc.RUnlock()
	return sc.C
}
