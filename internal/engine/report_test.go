package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/model"
)

var reportNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func indexerSnapshot() *model.InstanceSnapshot {
	return &model.InstanceSnapshot{
		MgmtHost:    "idx1.example.com",
		MgmtPort:    8089,
		ServerName:  model.Some("idx1"),
		GUID:        model.Some("GUID-1"),
		Roles:       model.KnownList([]string{"indexer", "license_master"}),
		Product:     model.Some("enterprise"),
		Version:     model.Some("9.1.2"),
		OS:          model.Some("Linux 5.15 x86_64"),
		StartupTime: model.Some(reportNow.Add(-30 * 24 * time.Hour)),
		Cores:       model.Some(16),
		RAMMB:       model.Some(65536),
		HTTPServer:  model.Some(true),
		HTTPSSL:     model.Some(true),
		HTTPPort:    model.Some(8000),
		Resources: model.Resources{
			CPUUsage:  model.Some(20.0),
			MemUsage:  model.Some(50.0),
			SwapUsage: model.Some(0.0),
		},
		DiskPartitions: model.KnownList([]model.DiskPartition{
			{Mount: "/", UsedPercent: model.Some(40.0)},
		}),
		ReceivingPorts: model.KnownList([]string{"9997"}),
		RawTCPPorts:    model.KnownList([]string{}),
		UDPPorts:       model.KnownList([]string{"514"}),
		KVStorePort:    model.Some(8191),
		Messages:       model.KnownList([]model.Message{}),
		Apps:           model.KnownList([]model.App{{Name: "search"}, {Name: "launcher"}}),
	}
}

func mustRow(t *testing.T, r model.Report, category, name string) model.Row {
	t.Helper()
	row, ok := r.Find(category, name)
	require.True(t, ok, "row %s/%s missing", category, name)
	return row
}

func TestBuildReport_CPUUsageWarning(t *testing.T) {
	snap := indexerSnapshot()
	snap.Resources.CPUUsage = model.Some(95.0)
	r := BuildReport(snap, config.DefaultHealthchecks(), reportNow)

	row := mustRow(t, r, model.CategoryResources, "CPU Usage")
	assert.Equal(t, model.Row{Category: model.CategoryResources, Name: "CPU Usage", Health: model.HealthWarning, Value: "95%"}, row)
	assert.Equal(t, "idx1.example.com:8089", r.Instance)
	assert.Equal(t, reportNow, r.GeneratedAt)
}

func TestBuildReport_UniversalForwarderHasNoClusterRows(t *testing.T) {
	snap := indexerSnapshot()
	snap.Roles = model.KnownList([]string{"universal_forwarder"})
	r := BuildReport(snap, config.DefaultHealthchecks(), reportNow)
	for _, row := range r.Rows {
		assert.NotEqual(t, model.CategoryCluster, row.Category, row.Name)
	}
	assert.Equal(t, "Splunk Universal Forwarder v9.1.2", mustRow(t, r, model.CategoryServer, "Type").Value)
}

func TestBuildReport_RowOrder(t *testing.T) {
	r := BuildReport(indexerSnapshot(), config.DefaultHealthchecks(), reportNow)
	var names []string
	for _, row := range r.Rows {
		names = append(names, row.Name)
	}
	assert.Equal(t, []string{
		"Host/IP", "Server Name", "GUID", "Type", "Roles", "OS", "Web Enabled",
		"Version", "Uptime", "HTTP SSL", "Messages",
		"Management Port", "Web Port", "Receiving Ports", "TCP Input Ports", "UDP Input Ports",
		"Replication Port", "KV Store Port",
		"CPU Cores", "RAM Size", "CPU Usage", "RAM Usage", "Swap Usage", "Disk Usage",
		"Client of Deployment Server", "Cluster Master", "Fetch from SHC Deployer",
		"Messages", "Apps",
	}, names)
	assert.Equal(t, model.HealthOK, r.Worst())
}

func TestBuildReport_DisabledChecksSuppressRows(t *testing.T) {
	hc := config.DefaultHealthchecks()
	hc[config.CheckCPUUsageWarning] = config.Flag(false)
	hc[config.CheckCPUUsageCaution] = config.Flag(false)
	hc[config.CheckHTTPSSLCaution] = config.Flag(false)

	r := BuildReport(indexerSnapshot(), hc, reportNow)
	_, ok := r.Find(model.CategoryResources, "CPU Usage")
	assert.False(t, ok)
	_, ok = r.Find(model.CategoryServer, "HTTP SSL")
	assert.False(t, ok)
}

func TestBuildReport_OnlyCautionEnabled(t *testing.T) {
	hc := config.DefaultHealthchecks()
	hc[config.CheckMemUsageWarning] = config.Flag(false)
	snap := indexerSnapshot()
	snap.Resources.MemUsage = model.Some(99.0)

	r := BuildReport(snap, hc, reportNow)
	assert.Equal(t, model.HealthCaution, mustRow(t, r, model.CategoryResources, "RAM Usage").Health)
}

func TestBuildReport_Grading(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*model.InstanceSnapshot)
		category string
		row      string
		health   model.Health
		value    string
	}{
		{"version at warning", func(s *model.InstanceSnapshot) { s.Version = model.Some("5.0.3") },
			model.CategoryServer, "Version", model.HealthWarning, "5.0.3"},
		{"version at caution", func(s *model.InstanceSnapshot) { s.Version = model.Some("6.0") },
			model.CategoryServer, "Version", model.HealthCaution, "6.0"},
		{"version unparseable", func(s *model.InstanceSnapshot) { s.Version = model.Some("dev") },
			model.CategoryServer, "Version", model.HealthUnknown, "dev"},
		{"version unknown", func(s *model.InstanceSnapshot) { s.Version = model.Opt[string]{} },
			model.CategoryServer, "Version", model.HealthUnknown, "?"},
		{"uptime below warning", func(s *model.InstanceSnapshot) {
			s.StartupTime = model.Some(reportNow.Add(-(time.Hour + 2*time.Minute + 3*time.Second)))
		}, model.CategoryServer, "Uptime", model.HealthWarning, "1 hr 2 mins 3 secs"},
		{"uptime below caution", func(s *model.InstanceSnapshot) {
			s.StartupTime = model.Some(reportNow.Add(-2 * 24 * time.Hour))
		}, model.CategoryServer, "Uptime", model.HealthCaution, "2 days"},
		{"ssl off", func(s *model.InstanceSnapshot) { s.HTTPSSL = model.Some(false) },
			model.CategoryServer, "HTTP SSL", model.HealthCaution, "False"},
		{"ssl unknown", func(s *model.InstanceSnapshot) { s.HTTPSSL = model.Opt[bool]{} },
			model.CategoryServer, "HTTP SSL", model.HealthUnknown, "?"},
		{"messages info only", func(s *model.InstanceSnapshot) {
			s.Messages = model.KnownList([]model.Message{{Severity: "INFO", Title: "hello"}})
		}, model.CategoryServer, "Messages", model.HealthOK, "None"},
		{"messages warn", func(s *model.InstanceSnapshot) {
			s.Messages = model.KnownList([]model.Message{
				{Severity: "WARN", Title: "a"}, {Severity: "INFO", Title: "b"}, {Severity: "ERROR", Title: "c"},
			})
		}, model.CategoryServer, "Messages", model.HealthCaution, "a, c"},
		{"messages unknown", func(s *model.InstanceSnapshot) { s.Messages = model.List[model.Message]{} },
			model.CategoryServer, "Messages", model.HealthUnknown, "?"},
		{"few cores", func(s *model.InstanceSnapshot) { s.Cores = model.Some(4) },
			model.CategoryResources, "CPU Cores", model.HealthCaution, "4"},
		{"small ram", func(s *model.InstanceSnapshot) { s.RAMMB = model.Some(16000) },
			model.CategoryResources, "RAM Size", model.HealthCaution, "16000 MB"},
		{"cpu at caution", func(s *model.InstanceSnapshot) { s.Resources.CPUUsage = model.Some(80.0) },
			model.CategoryResources, "CPU Usage", model.HealthCaution, "80%"},
		{"cpu truncated", func(s *model.InstanceSnapshot) { s.Resources.CPUUsage = model.Some(79.9) },
			model.CategoryResources, "CPU Usage", model.HealthOK, "79%"},
		{"swap unknown", func(s *model.InstanceSnapshot) { s.Resources.SwapUsage = model.Opt[float64]{} },
			model.CategoryResources, "Swap Usage", model.HealthUnknown, "?"},
		{"disk worst mount", func(s *model.InstanceSnapshot) {
			s.DiskPartitions = model.KnownList([]model.DiskPartition{
				{Mount: "/", UsedPercent: model.Some(50.0)},
				{Mount: "/opt", UsedPercent: model.Some(91.5)},
				{Mount: "/tmp"},
			})
		}, model.CategoryResources, "Disk Usage", model.HealthWarning, "'/': 50%, '/opt': 91%, '/tmp': ?"},
		{"disk no known mount", func(s *model.InstanceSnapshot) {
			s.DiskPartitions = model.KnownList([]model.DiskPartition{{Mount: "/"}})
		}, model.CategoryResources, "Disk Usage", model.HealthUnknown, "'/': ?"},
		{"disk empty", func(s *model.InstanceSnapshot) { s.DiskPartitions = model.KnownList([]model.DiskPartition{}) },
			model.CategoryResources, "Disk Usage", model.HealthUnknown, "?"},
		{"replication port missing with cluster config", func(s *model.InstanceSnapshot) { s.Cluster.Mode = model.Some("disabled") },
			model.CategoryPorts, "Replication Port", model.HealthNA, ""},
		{"replication port unknown", func(*model.InstanceSnapshot) {},
			model.CategoryPorts, "Replication Port", model.HealthNA, "?"},
		{"tcp inputs empty", func(*model.InstanceSnapshot) {},
			model.CategoryPorts, "TCP Input Ports", model.HealthNA, ""},
		{"apps count", func(*model.InstanceSnapshot) {},
			model.CategoryCounts, "Apps", model.HealthNA, "2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := indexerSnapshot()
			tc.mutate(snap)
			r := BuildReport(snap, config.DefaultHealthchecks(), reportNow)
			row := mustRow(t, r, tc.category, tc.row)
			assert.Equal(t, tc.health, row.Health)
			assert.Equal(t, tc.value, row.Value)
		})
	}
}

func clusterMasterSnapshot() *model.InstanceSnapshot {
	snap := indexerSnapshot()
	snap.Roles = model.KnownList([]string{"cluster_master", "search_head"})
	snap.Cluster = model.ClusterInfo{
		Mode:                 model.Some("master"),
		Label:                model.Some("prod"),
		Site:                 model.Some(""),
		ReplicationFactor:    model.Some(3),
		SearchFactor:         model.Some(2),
		Maintenance:          model.Some(true),
		RollingRestart:       model.Some(false),
		AllDataSearchable:    model.Some(false),
		SearchFactorMet:      model.Some(true),
		ReplicationFactorMet: model.Opt[bool]{},
		Peers: model.KnownList([]model.ClusterPeer{
			{Name: "idx1", Searchable: true}, {Name: "idx2", Searchable: false}, {Name: "idx3", Searchable: true},
		}),
		SearchHeads: model.KnownList([]model.ClusterSearchHead{}),
	}
	return snap
}

func TestBuildReport_ClusterSection(t *testing.T) {
	r := BuildReport(clusterMasterSnapshot(), config.DefaultHealthchecks(), reportNow)

	var got []model.Row
	for _, row := range r.Rows {
		if row.Category == model.CategoryCluster {
			got = append(got, row)
		}
	}
	c := model.CategoryCluster
	assert.Equal(t, []model.Row{
		{Category: c, Name: "IC Label", Health: model.HealthNA, Value: "prod"},
		{Category: c, Name: "IC Mode", Health: model.HealthNA, Value: "master"},
		{Category: c, Name: "IC Site", Health: model.HealthNA, Value: ""},
		{Category: c, Name: "IC Maintenance Mode", Health: model.HealthCaution, Value: "True"},
		{Category: c, Name: "IC Rolling Restart", Health: model.HealthOK, Value: "False"},
		{Category: c, Name: "IC All Data Searchable", Health: model.HealthWarning, Value: "False"},
		{Category: c, Name: "IC Search Factor", Health: model.HealthNA, Value: "2"},
		{Category: c, Name: "IC Search Factor Met", Health: model.HealthOK, Value: "True"},
		{Category: c, Name: "IC Rep Factor", Health: model.HealthNA, Value: "3"},
		{Category: c, Name: "IC Rep Factor Met", Health: model.HealthUnknown, Value: "?"},
		{Category: c, Name: "IC Searchable Peers", Health: model.HealthWarning, Value: "2 of 3"},
	}, got, "connected search heads is omitted for an empty list")
	assert.Equal(t, model.HealthWarning, r.Worst())
}

func TestBuildReport_SHClusterSection(t *testing.T) {
	snap := indexerSnapshot()
	snap.Roles = model.KnownList([]string{"shc_member", "search_head"})
	snap.SHCluster = model.SHClusterInfo{
		Label:             model.Some("shc"),
		ReplicationFactor: model.Some(2),
		RollingRestart:    model.Some(false),
		ServiceReady:      model.Some(true),
		MinPeersJoined:    model.Some(false),
		Members: model.KnownList([]model.SHCMember{
			{Label: "sh1", Status: "Up"}, {Label: "sh2", Status: "Up"},
		}),
	}
	r := BuildReport(snap, config.DefaultHealthchecks(), reportNow)

	assert.Equal(t, model.HealthWarning, mustRow(t, r, model.CategoryCluster, "SHC Minimum Peers Joined").Health)
	up := mustRow(t, r, model.CategoryCluster, "SHC Members Up")
	assert.Equal(t, model.HealthOK, up.Health)
	assert.Equal(t, "2 of 2", up.Value)
	_, ok := r.Find(model.CategoryCluster, "IC Label")
	assert.False(t, ok)
}

func TestBuildReport_UnknownSnapshotNeverPanics(t *testing.T) {
	snap := &model.InstanceSnapshot{MgmtHost: "x", MgmtPort: 8089}
	r := BuildReport(snap, config.DefaultHealthchecks(), reportNow)
	assert.Equal(t, "?", mustRow(t, r, model.CategoryServer, "Type").Value)
	assert.Equal(t, model.HealthUnknown, mustRow(t, r, model.CategoryResources, "Disk Usage").Health)
	assert.Equal(t, "?", mustRow(t, r, model.CategoryCounts, "Apps").Value)
	assert.Zero(t, r.Count(model.HealthWarning))
}
