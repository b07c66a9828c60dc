package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/format"
	"github.com/dm/spm-go/internal/model"
)

// unknownValue is rendered for any value whose source was not available.
const unknownValue = "?"

// reportBuilder accumulates rows in insertion order.
type reportBuilder struct {
	hc   config.Healthchecks
	rows []model.Row
}

func (b *reportBuilder) add(category, name string, h model.Health, value string) {
	b.rows = append(b.rows, model.Row{Category: category, Name: name, Health: h, Value: value})
}

// info adds an unconditional row.
func (b *reportBuilder) info(category, name, value string) {
	b.add(category, name, model.HealthNA, value)
}

func (b *reportBuilder) unknown(category, name string) {
	b.add(category, name, model.HealthUnknown, unknownValue)
}

// enabled reports whether any of the named checks is on.
func (b *reportBuilder) enabled(checks ...string) bool {
	for _, c := range checks {
		if c != "" && b.hc.Enabled(c) {
			return true
		}
	}
	return false
}

// grade compares v against the enabled warning then caution thresholds.
func (b *reportBuilder) grade(v float64, warning, caution string, bad func(v, threshold float64) bool) model.Health {
	if t, ok := b.hc.Get(warning); ok && bad(v, t) {
		return model.HealthWarning
	}
	if t, ok := b.hc.Get(caution); ok && bad(v, t) {
		return model.HealthCaution
	}
	return model.HealthOK
}

func atLeast(v, t float64) bool { return v >= t }
func below(v, t float64) bool   { return v < t }
func atMost(v, t float64) bool  { return v <= t }

// flag adds a boolean row that takes sev when the value equals bad.
func (b *reportBuilder) flag(category, name, check string, o model.Opt[bool], bad bool, sev model.Health) {
	if !b.enabled(check) {
		return
	}
	v, ok := o.Get()
	if !ok {
		b.unknown(category, name)
		return
	}
	h := model.HealthOK
	if v == bad {
		h = sev
	}
	b.add(category, name, h, boolValue(v))
}

// usage adds a percentage row graded with >= thresholds.
func (b *reportBuilder) usage(category, name, warning, caution string, o model.Opt[float64]) {
	if !b.enabled(warning, caution) {
		return
	}
	v, ok := o.Get()
	if !ok {
		b.unknown(category, name)
		return
	}
	b.add(category, name, b.grade(v, warning, caution, atLeast), format.FormatUsage(v))
}

// ratio adds an "X of Y" row; short of total is a Warning. Nothing is added
// for an empty or unknown total.
func (b *reportBuilder) ratio(category, name, check string, actual, total int) {
	if !b.enabled(check) || total == 0 {
		return
	}
	h := model.HealthOK
	if actual < total {
		h = model.HealthWarning
	}
	b.add(category, name, h, fmt.Sprintf("%d of %d", actual, total))
}

func boolValue(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func optString(o model.Opt[string]) string {
	return o.Or(unknownValue)
}

func optIntString(o model.Opt[int]) string {
	if v, ok := o.Get(); ok {
		return strconv.Itoa(v)
	}
	return unknownValue
}

func optBoolString(o model.Opt[bool]) string {
	if v, ok := o.Get(); ok {
		return boolValue(v)
	}
	return unknownValue
}

func listString(l model.List[string]) string {
	if !l.Known {
		return unknownValue
	}
	return strings.Join(l.Items, ", ")
}

func countString[T any](l model.List[T]) string {
	if !l.Known {
		return unknownValue
	}
	return strconv.Itoa(len(l.Items))
}

// BuildReport evaluates snap against hc. Rows are emitted in a fixed order;
// rows backed by a disabled check are omitted and missing data grades as
// Unknown. now is the reference time for uptime.
func BuildReport(snap *model.InstanceSnapshot, hc config.Healthchecks, now time.Time) model.Report {
	b := &reportBuilder{hc: hc}
	serverRows(b, snap, now)
	portRows(b, snap)
	resourceRows(b, snap)
	deploymentRows(b, snap)
	if snap.HasRole("cluster_master") {
		clusterRows(b, snap.Cluster)
	}
	if snap.HasRole("shc_member") {
		shClusterRows(b, snap.SHCluster)
	}
	b.info(model.CategoryCounts, "Messages", countString(snap.Messages))
	b.info(model.CategoryCounts, "Apps", countString(snap.Apps))

	return model.Report{
		Instance:    snap.Address(),
		GeneratedAt: now,
		Rows:        b.rows,
	}
}

func serverRows(b *reportBuilder, snap *model.InstanceSnapshot, now time.Time) {
	const cat = model.CategoryServer
	b.info(cat, "Host/IP", snap.MgmtHost)
	b.info(cat, "Server Name", optString(snap.ServerName))
	b.info(cat, "GUID", optString(snap.GUID))
	b.info(cat, "Type", InstanceType(snap))
	b.info(cat, "Roles", listString(snap.Roles))
	b.info(cat, "OS", optString(snap.OS))
	b.info(cat, "Web Enabled", optBoolString(snap.HTTPServer))

	if b.enabled(config.CheckVersionWarning, config.CheckVersionCaution) {
		version, known := snap.Version.Get()
		minor, ok := MinorVersion(version)
		switch {
		case !known:
			b.unknown(cat, "Version")
		case !ok:
			b.add(cat, "Version", model.HealthUnknown, version)
		default:
			b.add(cat, "Version", b.grade(minor, config.CheckVersionWarning, config.CheckVersionCaution, atMost), version)
		}
	}

	if b.enabled(config.CheckUptimeWarning, config.CheckUptimeCaution) {
		if start, ok := snap.StartupTime.Get(); ok {
			up := now.Sub(start).Truncate(time.Second)
			h := b.grade(up.Seconds(), config.CheckUptimeWarning, config.CheckUptimeCaution, below)
			b.add(cat, "Uptime", h, format.FormatUptime(up))
		} else {
			b.unknown(cat, "Uptime")
		}
	}

	b.flag(cat, "HTTP SSL", config.CheckHTTPSSLCaution, snap.HTTPSSL, false, model.HealthCaution)

	if b.enabled(config.CheckMessagesCaution) {
		if !snap.Messages.Known {
			b.unknown(cat, "Messages")
		} else {
			var titles []string
			for _, m := range snap.Messages.Items {
				if m.Severity != "INFO" {
					titles = append(titles, m.Title)
				}
			}
			if len(titles) == 0 {
				b.add(cat, "Messages", model.HealthOK, "None")
			} else {
				b.add(cat, "Messages", model.HealthCaution, strings.Join(titles, ", "))
			}
		}
	}
}

func portRows(b *reportBuilder, snap *model.InstanceSnapshot) {
	const cat = model.CategoryPorts
	b.info(cat, "Management Port", strconv.Itoa(snap.MgmtPort))
	b.info(cat, "Web Port", optIntString(snap.HTTPPort))
	b.info(cat, "Receiving Ports", listString(snap.ReceivingPorts))
	b.info(cat, "TCP Input Ports", listString(snap.RawTCPPorts))
	b.info(cat, "UDP Input Ports", listString(snap.UDPPorts))

	repl := optIntString(snap.Cluster.ReplicationPort)
	if !snap.Cluster.ReplicationPort.Known && snap.Cluster.Mode.Known {
		repl = ""
	}
	b.info(cat, "Replication Port", repl)
	b.info(cat, "KV Store Port", optIntString(snap.KVStorePort))
}

func resourceRows(b *reportBuilder, snap *model.InstanceSnapshot) {
	const cat = model.CategoryResources

	if b.enabled(config.CheckCPUCoresCaution) {
		if cores, ok := snap.Cores.Get(); ok {
			b.add(cat, "CPU Cores", b.grade(float64(cores), "", config.CheckCPUCoresCaution, below), strconv.Itoa(cores))
		} else {
			b.unknown(cat, "CPU Cores")
		}
	}
	if b.enabled(config.CheckMemCapacityCaution) {
		if mb, ok := snap.RAMMB.Get(); ok {
			b.add(cat, "RAM Size", b.grade(float64(mb), "", config.CheckMemCapacityCaution, below), fmt.Sprintf("%d MB", mb))
		} else {
			b.unknown(cat, "RAM Size")
		}
	}

	r := snap.Resources
	b.usage(cat, "CPU Usage", config.CheckCPUUsageWarning, config.CheckCPUUsageCaution, r.CPUUsage)
	b.usage(cat, "RAM Usage", config.CheckMemUsageWarning, config.CheckMemUsageCaution, r.MemUsage)
	b.usage(cat, "Swap Usage", config.CheckSwapUsageWarning, config.CheckSwapUsageCaution, r.SwapUsage)

	if b.enabled(config.CheckDiskUsageWarning, config.CheckDiskUsageCaution) {
		diskRow(b, snap.DiskPartitions)
	}
}

// diskRow grades every mount and reports the worst. A mount without usage
// renders as "?" and does not contribute to the health.
func diskRow(b *reportBuilder, parts model.List[model.DiskPartition]) {
	const cat, name = model.CategoryResources, "Disk Usage"
	if parts.Len() == 0 {
		b.unknown(cat, name)
		return
	}
	health := model.HealthUnknown
	values := make([]string, 0, len(parts.Items))
	for _, p := range parts.Items {
		used, ok := p.UsedPercent.Get()
		if !ok {
			values = append(values, fmt.Sprintf("'%s': %s", p.Mount, unknownValue))
			continue
		}
		values = append(values, fmt.Sprintf("'%s': %s", p.Mount, format.FormatUsage(used)))
		h := b.grade(used, config.CheckDiskUsageWarning, config.CheckDiskUsageCaution, atLeast)
		if health == model.HealthUnknown {
			health = h
		} else {
			health = health.Worse(h)
		}
	}
	b.add(cat, name, health, strings.Join(values, ", "))
}

func deploymentRows(b *reportBuilder, snap *model.InstanceSnapshot) {
	const cat = model.CategoryDeployment
	b.info(cat, "Client of Deployment Server", optString(snap.DeploymentServer))
	b.info(cat, "Cluster Master", optString(snap.ClusterMasterURI))
	b.info(cat, "Fetch from SHC Deployer", optString(snap.SHClusterDeployer))
}

func clusterRows(b *reportBuilder, ci model.ClusterInfo) {
	const cat = model.CategoryCluster
	b.info(cat, "IC Label", optString(ci.Label))
	b.info(cat, "IC Mode", optString(ci.Mode))
	b.info(cat, "IC Site", optString(ci.Site))
	b.flag(cat, "IC Maintenance Mode", config.CheckClusterMaintenanceCaution, ci.Maintenance, true, model.HealthCaution)
	b.flag(cat, "IC Rolling Restart", config.CheckClusterRollingRestartCaution, ci.RollingRestart, true, model.HealthCaution)
	b.flag(cat, "IC All Data Searchable", config.CheckClusterAllDataSearchableWarn, ci.AllDataSearchable, false, model.HealthWarning)
	b.info(cat, "IC Search Factor", optIntString(ci.SearchFactor))
	b.flag(cat, "IC Search Factor Met", config.CheckClusterSearchFactorCaution, ci.SearchFactorMet, false, model.HealthCaution)
	b.info(cat, "IC Rep Factor", optIntString(ci.ReplicationFactor))
	b.flag(cat, "IC Rep Factor Met", config.CheckClusterRepFactorCaution, ci.ReplicationFactorMet, false, model.HealthCaution)
	b.ratio(cat, "IC Searchable Peers", config.CheckClusterPeersNotSearchableWarn, ci.SearchablePeers(), ci.Peers.Len())
	b.ratio(cat, "IC Connected Search Heads", config.CheckClusterSHNotConnectedWarn, ci.ConnectedSearchHeads(), ci.SearchHeads.Len())
}

func shClusterRows(b *reportBuilder, si model.SHClusterInfo) {
	const cat = model.CategoryCluster
	b.info(cat, "SHC Label", optString(si.Label))
	b.info(cat, "SHC Rep Factor", optIntString(si.ReplicationFactor))
	b.flag(cat, "SHC Rolling Restart", config.CheckSHCRollingRestartCaution, si.RollingRestart, true, model.HealthCaution)
	b.flag(cat, "SHC Service Ready", config.CheckSHCServiceReadyWarn, si.ServiceReady, false, model.HealthWarning)
	b.flag(cat, "SHC Minimum Peers Joined", config.CheckSHCMinPeersJoinedWarn, si.MinPeersJoined, false, model.HealthWarning)
	b.ratio(cat, "SHC Members Up", config.CheckSHCMembersNotUpWarn, si.MembersUp(), si.Members.Len())
}
