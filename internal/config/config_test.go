package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/spm-go/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spm.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    Threshold
		wantErr bool
	}{
		{"true", true, Threshold{Enabled: true, Value: 1, Flag: true}, false},
		{"false", false, Threshold{Flag: true}, false},
		{"int", 90, Threshold{Enabled: true, Value: 90}, false},
		{"zero disables", 0, Threshold{}, false},
		{"float", 6.5, Threshold{Enabled: true, Value: 6.5}, false},
		{"numeric string", "80", Threshold{Enabled: true, Value: 80}, false},
		{"bool string", "False", Threshold{Flag: true}, false},
		{"float string", "5.5", Threshold{Enabled: true, Value: 5.5}, false},
		{"nil", nil, Threshold{}, false},
		{"garbage", "lots", Threshold{}, true},
		{"list", []any{1}, Threshold{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseThreshold(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHealthchecks_Get(t *testing.T) {
	hc := Healthchecks{
		"on":  Number(80),
		"off": Flag(false),
	}
	v, ok := hc.Get("on")
	assert.True(t, ok)
	assert.Equal(t, 80.0, v)

	_, ok = hc.Get("off")
	assert.False(t, ok)

	_, ok = hc.Get("absent")
	assert.False(t, ok, "absent checks are disabled")
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	v, err := NewViper(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err, "an explicit path that does not exist is an error")
	assert.Nil(t, v)

	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	v, err = NewViper("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultHealthchecks(), cfg.Healthchecks)
	assert.Equal(t, DefaultTopology(), cfg.Topology)
	assert.Equal(t, 10*time.Second, cfg.Discovery.RequestTimeout)
	assert.Empty(t, cfg.Instances)
}

func TestLoad_MergesHealthchecksAndTopology(t *testing.T) {
	path := writeConfig(t, `
healthchecks:
  cpu_usage_warning: 95
  http_ssl_caution: false
  version_caution: "7.0"
  custom_check: true
topology:
  spacing: 200
  buckets:
    indexer:
      color: "#000000"
  rules:
    license: false
discovery:
  request_timeout: 3s
instances:
  - name: idx1
    address: 10.0.0.5
    port: 8089
    username: admin
    password: changeme
`)
	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	warn, ok := cfg.Healthchecks.Get(CheckCPUUsageWarning)
	require.True(t, ok)
	assert.Equal(t, 95.0, warn)

	caution, ok := cfg.Healthchecks.Get(CheckCPUUsageCaution)
	require.True(t, ok, "unspecified checks keep their defaults")
	assert.Equal(t, 80.0, caution)

	assert.False(t, cfg.Healthchecks.Enabled(CheckHTTPSSLCaution))
	ver, _ := cfg.Healthchecks.Get(CheckVersionCaution)
	assert.Equal(t, 7.0, ver)
	assert.True(t, cfg.Healthchecks.Enabled("custom_check"))

	assert.Equal(t, 200.0, cfg.Topology.Spacing)
	idx := cfg.Topology.Bucket(model.BucketIndexer)
	assert.Equal(t, "#000000", idx.Color)
	assert.True(t, idx.Enabled, "unspecified bucket fields keep their defaults")
	assert.Equal(t, 520.0, idx.LayerY)
	assert.False(t, cfg.Topology.RuleEnabled(RuleLicense))
	assert.True(t, cfg.Topology.RuleEnabled(RuleDeployment))

	assert.Equal(t, 3*time.Second, cfg.Discovery.RequestTimeout)
	require.Len(t, cfg.Instances, 1)
	assert.Equal(t, "10.0.0.5:8089", cfg.Instances[0].Key())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "topology:\n  width: 1000\n")
	t.Setenv("SPM_TOPOLOGY_WIDTH", "1600")
	t.Setenv("SPM_HEALTHCHECKS_SWAP_USAGE_WARNING", "false")

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 1600.0, cfg.Topology.Width)
	assert.False(t, cfg.Healthchecks.Enabled(CheckSwapUsageWarning))
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad threshold": "healthchecks:\n  cpu_usage_warning: high\n",
		"bad align":     "topology:\n  buckets:\n    indexer:\n      align: diagonal\n",
		"zero spacing":  "topology:\n  spacing: 0\n",
		"no address":    "instances:\n  - name: x\n",
		"zero interval": "serve:\n  interval: 0s\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := NewViper(writeConfig(t, body))
			require.NoError(t, err)
			_, err = Load(v)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestWriteDefault_RoundTripsThroughLoad(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDefault(&buf))
	out := buf.String()
	assert.Contains(t, out, "http_ssl_caution: true")
	assert.Contains(t, out, "cpu_usage_warning: 90")
	assert.Contains(t, out, "request_timeout: 10s")

	v, err := NewViper(writeConfig(t, out))
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultHealthchecks(), cfg.Healthchecks)
}

func TestLoadCandidates(t *testing.T) {
	cands, err := LoadCandidates(strings.NewReader(`
instances:
  - address: sh1.example.com
  - address: 10.1.1.1
    port: 18089
    token: abc
`))
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "sh1.example.com:8089", cands[0].Key())
	assert.Equal(t, "10.1.1.1:18089", cands[1].Key())
	assert.Equal(t, "abc", cands[1].Token)

	_, err = LoadCandidates(strings.NewReader("instances:\n  - address: a\n    colour: red\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig, "unknown fields are rejected")

	_, err = LoadCandidates(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSafeConfig_Reload(t *testing.T) {
	path := writeConfig(t, "topology:\n  spacing: 150\n")
	v, err := NewViper(path)
	require.NoError(t, err)

	sc := NewSafeConfig(prometheus.NewRegistry())
	require.NoError(t, sc.ReloadConfig(v, nil))
	assert.Equal(t, 150.0, sc.Get().Topology.Spacing)
	assert.Equal(t, 1.0, testutil.ToFloat64(sc.configReloadSuccess))

	require.NoError(t, os.WriteFile(path, []byte("topology:\n  spacing: -1\n"), 0o600))
	err = sc.ReloadConfig(v, nil)
	require.Error(t, err)
	assert.Equal(t, 150.0, sc.Get().Topology.Spacing, "a failed reload keeps the previous config")
	assert.Equal(t, 0.0, testutil.ToFloat64(sc.configReloadSuccess))
}
