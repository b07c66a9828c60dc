package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Healthcheck names. A check whose threshold is false, 0 or absent is not
// evaluated and its report row is omitted.
const (
	CheckVersionCaution                = "version_caution"
	CheckVersionWarning                = "version_warning"
	CheckUptimeCaution                 = "uptime_caution"
	CheckUptimeWarning                 = "uptime_warning"
	CheckHTTPSSLCaution                = "http_ssl_caution"
	CheckMessagesCaution               = "messages_caution"
	CheckCPUCoresCaution               = "cpu_cores_caution"
	CheckMemCapacityCaution            = "mem_capacity_caution"
	CheckCPUUsageCaution               = "cpu_usage_caution"
	CheckCPUUsageWarning               = "cpu_usage_warning"
	CheckMemUsageCaution               = "mem_usage_caution"
	CheckMemUsageWarning               = "mem_usage_warning"
	CheckSwapUsageCaution              = "swap_usage_caution"
	CheckSwapUsageWarning              = "swap_usage_warning"
	CheckDiskUsageCaution              = "diskpartition_usage_caution"
	CheckDiskUsageWarning              = "diskpartition_usage_warning"
	CheckClusterMaintenanceCaution     = "cluster_maintenance_caution"
	CheckClusterRollingRestartCaution  = "cluster_rollingrestart_caution"
	CheckClusterAllDataSearchableWarn  = "cluster_alldatasearchable_warning"
	CheckClusterSearchFactorCaution    = "cluster_searchfactor_caution"
	CheckClusterRepFactorCaution       = "cluster_replicationfactor_caution"
	CheckClusterPeersNotSearchableWarn = "cluster_peersnotsearchable_warning"
	CheckClusterSHNotConnectedWarn     = "cluster_searchheadsnotconnected_warning"
	CheckSHCRollingRestartCaution      = "shcluster_rollingrestart_caution"
	CheckSHCServiceReadyWarn           = "shcluster_serviceready_warning"
	CheckSHCMinPeersJoinedWarn         = "shcluster_minpeersjoined_warning"
	CheckSHCMembersNotUpWarn           = "shcluster_membersnotup_warning"
)

// Threshold is one configured healthcheck. Flag records that the value was
// written as a boolean so it can be written back the same way.
type Threshold struct {
	Enabled bool
	Value   float64
	Flag    bool
}

// Number returns an enabled numeric threshold.
func Number(v float64) Threshold {
	return Threshold{Enabled: v != 0, Value: v}
}

// Flag returns an enabled or disabled boolean threshold.
func Flag(on bool) Threshold {
	if !on {
		return Threshold{Flag: true}
	}
	return Threshold{Enabled: true, Value: 1, Flag: true}
}

// MarshalYAML writes disabled checks as false and flags as true.
func (t Threshold) MarshalYAML() (any, error) {
	switch {
	case !t.Enabled:
		return false, nil
	case t.Flag:
		return true, nil
	default:
		return t.Value, nil
	}
}

// ParseThreshold coerces a raw config value. Booleans are tried first, then
// integers, then floats; numeric strings are accepted.
func ParseThreshold(raw any) (Threshold, error) {
	switch v := raw.(type) {
	case nil:
		return Threshold{}, nil
	case bool:
		return Flag(v), nil
	case int:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if b, err := strconv.ParseBool(s); err == nil {
			return Flag(b), nil
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Number(float64(i)), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f), nil
		}
		return Threshold{}, fmt.Errorf("%w: %q is not a boolean or number", ErrInvalidConfig, v)
	default:
		return Threshold{}, fmt.Errorf("%w: unsupported threshold type %T", ErrInvalidConfig, raw)
	}
}

// Healthchecks maps check name to threshold. It is read-only once loaded.
type Healthchecks map[string]Threshold

// Get returns the threshold value and whether the check is enabled. Absent
// checks are disabled.
func (h Healthchecks) Get(name string) (float64, bool) {
	t, ok := h[name]
	if !ok || !t.Enabled {
		return 0, false
	}
	return t.Value, true
}

// Enabled reports whether the named check is evaluated.
func (h Healthchecks) Enabled(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Names returns the configured check names in sorted order.
func (h Healthchecks) Names() []string {
	names := make([]string, 0, len(h))
	for n := range h {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseHealthchecks coerces every value of raw into a Threshold.
func ParseHealthchecks(raw map[string]any) (Healthchecks, error) {
	out := make(Healthchecks, len(raw))
	for name, v := range raw {
		t, err := ParseThreshold(v)
		if err != nil {
			return nil, fmt.Errorf("healthchecks.%s: %w", name, err)
		}
		out[strings.ToLower(name)] = t
	}
	return out, nil
}

// DefaultHealthchecks returns the built-in thresholds.
func DefaultHealthchecks() Healthchecks {
	return Healthchecks{
		CheckVersionCaution:                Number(6.0),
		CheckVersionWarning:                Number(5.0),
		CheckUptimeCaution:                 Number(604800),
		CheckUptimeWarning:                 Number(86400),
		CheckHTTPSSLCaution:                Flag(true),
		CheckMessagesCaution:               Flag(true),
		CheckCPUCoresCaution:               Number(12),
		CheckMemCapacityCaution:            Number(31744),
		CheckCPUUsageCaution:               Number(80),
		CheckCPUUsageWarning:               Number(90),
		CheckMemUsageCaution:               Number(80),
		CheckMemUsageWarning:               Number(90),
		CheckSwapUsageCaution:              Number(80),
		CheckSwapUsageWarning:              Number(90),
		CheckDiskUsageCaution:              Number(80),
		CheckDiskUsageWarning:              Number(90),
		CheckClusterMaintenanceCaution:     Flag(true),
		CheckClusterRollingRestartCaution:  Flag(true),
		CheckClusterAllDataSearchableWarn:  Flag(true),
		CheckClusterSearchFactorCaution:    Flag(true),
		CheckClusterRepFactorCaution:       Flag(true),
		CheckClusterPeersNotSearchableWarn: Flag(true),
		CheckClusterSHNotConnectedWarn:     Flag(true),
		CheckSHCRollingRestartCaution:      Flag(true),
		CheckSHCServiceReadyWarn:           Flag(true),
		CheckSHCMinPeersJoinedWarn:         Flag(true),
		CheckSHCMembersNotUpWarn:           Flag(true),
	}
}
