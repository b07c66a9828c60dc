package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/model"
)

type fakeResolver map[string]string

func (f fakeResolver) LookupAddr(addr string) ([]string, error) {
	if name, ok := f[addr]; ok {
		return []string{name}, nil
	}
	return nil, errors.New("no PTR record")
}

func TestNormalizeRef(t *testing.T) {
	res := fakeResolver{"10.0.0.11": "idx1.example.com."}
	tests := []struct {
		name     string
		ref      string
		resolver Resolver
		want     string
	}{
		{"uri", "https://IDX1.Example.com:8089/services", nil, "idx1"},
		{"host port", "sh1.example.com:8089", nil, "sh1"},
		{"short name", "Forwarder01", nil, "forwarder01"},
		{"ip resolved", "10.0.0.11:9997", res, "idx1"},
		{"ip unresolved", "10.0.0.99", res, "10.0.0.99"},
		{"ip without resolver", "10.0.0.11", nil, "10.0.0.11"},
		{"ipv6 is kept", "[fe80::1]:8089", res, "fe80::1"},
		{"whitespace", "  cm1  ", nil, "cm1"},
		{"empty", "", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeRef(tc.ref, tc.resolver))
		})
	}
}

func TestNormalizeRef_Idempotent(t *testing.T) {
	res := fakeResolver{"10.0.0.11": "idx1.example.com."}
	for _, ref := range []string{"https://idx1.example.com:8089", "10.0.0.11:9997", "10.0.0.99", "UF-07.corp.local", "fe80::1"} {
		once := NormalizeRef(ref, res)
		assert.Equal(t, once, NormalizeRef(once, res), ref)
	}
}

func TestIsSentinel(t *testing.T) {
	for _, s := range []string{"", "?", "(none)", "(self)", "(disabled)", "  (none) "} {
		assert.True(t, isSentinel(s), s)
	}
	assert.False(t, isSentinel("cm1:8089"))
}

func deploymentSnapshots() map[string]*model.InstanceSnapshot {
	return map[string]*model.InstanceSnapshot{
		"sh1.example.com:8089": {
			MgmtHost: "sh1.example.com", MgmtPort: 8089,
			Host:  model.Some("sh1.example.com"),
			Roles: model.KnownList([]string{"search_head"}),
			DistributedSearchPeers: model.KnownList([]model.SearchPeer{
				{Name: "idx1.example.com:8089"}, {Name: "idx2.example.com:8089"},
			}),
			SHClusterDeployer: model.Some(SentinelNone),
			LicenseMaster:     model.Some("https://lm1.example.com:8089"),
		},
		"cm1.example.com:8089": {
			MgmtHost: "cm1.example.com", MgmtPort: 8089,
			Host:             model.Some("cm1"),
			Roles:            model.KnownList([]string{"cluster_master", "search_head"}),
			ClusterMasterURI: model.Some(SentinelSelf),
			Cluster: model.ClusterInfo{
				Peers: model.KnownList([]model.ClusterPeer{
					{Name: "idx1", Location: "idx1.example.com:8089"},
					{Name: "idx2", Location: "idx2.example.com:8089"},
				}),
				SearchHeads: model.KnownList([]model.ClusterSearchHead{
					{Name: "cm1", Location: "cm1.example.com:8089"},
					{Name: "sh1", Location: "sh1.example.com:8089"},
				}),
			},
		},
		"10.0.0.50:8089": {
			MgmtHost: "10.0.0.50", MgmtPort: 8089,
			ServerName:       model.Some("uf1"),
			Roles:            model.KnownList([]string{"universal_forwarder"}),
			ForwardServers:   model.KnownList([]model.ForwardServer{{Destination: "10.0.0.11:9997"}}),
			DeploymentServer: model.Some("ds1.example.com:8089"),
		},
	}
}

func TestBuildTopology(t *testing.T) {
	cfg := config.DefaultTopology()
	g, err := BuildTopology(deploymentSnapshots(), cfg, fakeResolver{"10.0.0.11": "idx1.example.com."})
	require.NoError(t, err)

	var ids []string
	for _, n := range g.SemanticNodes() {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{UserNodeID, "sh1", "cm1", "uf1", "idx1", "idx2", "ds1", "lm1"}, ids)

	sh1, _ := g.Node("sh1")
	assert.True(t, sh1.Polled)
	assert.Equal(t, model.BucketSearchHead, sh1.Bucket)
	assert.Equal(t, "sh1\nSearch Head", sh1.Label)
	assert.Equal(t, cfg.Bucket(model.BucketSearchHead).Color, sh1.Color)

	cm1, _ := g.Node("cm1")
	assert.Equal(t, "cm1\nCluster Master\nSearch Head", cm1.Label)

	ds1, _ := g.Node("ds1")
	assert.False(t, ds1.Polled)
	assert.Equal(t, model.BucketDeploymentServer, ds1.Bucket)
	assert.Equal(t, "ds1\n(discovered)", ds1.Label)

	edges := []struct {
		a, b string
		kind model.AdjacencyKind
	}{
		{UserNodeID, "sh1", model.AdjacencyWeb},
		{"sh1", "idx1", model.AdjacencyDistributedSearch},
		{"sh1", "idx2", model.AdjacencyDistributedSearch},
		{"cm1", "idx1", model.AdjacencyClusterManagement},
		{"cm1", "sh1", model.AdjacencyClusterManagement},
		{"idx1", "idx2", model.AdjacencyBucketReplication},
		{"uf1", "idx1", model.AdjacencyDataForwarding},
		{"ds1", "uf1", model.AdjacencyDeployment},
		{"lm1", "sh1", model.AdjacencyLicense},
	}
	for _, want := range edges {
		e, ok := g.Edge(want.b, want.a)
		if assert.True(t, ok, "%s-%s", want.a, want.b) {
			assert.Equal(t, want.kind, e.Kind, "%s-%s", want.a, want.b)
			assert.Equal(t, cfg.EdgeColor(want.kind), e.Color)
		}
	}
	_, ok := g.Edge("cm1", "cm1")
	assert.False(t, ok, "no self edges")

	seen := map[[2]string]bool{}
	for _, e := range g.Edges {
		key := [2]string{e.From, e.To}
		if e.To < e.From {
			key = [2]string{e.To, e.From}
		}
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
	}

	assert.Contains(t, g.Skipped, config.RuleClusterManagement+"/sh1")
	assert.Contains(t, g.Skipped, config.RuleDataInputs+"/uf1")
}

func TestBuildTopology_Anchors(t *testing.T) {
	cfg := config.DefaultTopology()
	g, err := BuildTopology(deploymentSnapshots(), cfg, nil)
	require.NoError(t, err)

	var anchors []model.Node
	for _, n := range g.Nodes {
		if n.Anchor {
			anchors = append(anchors, n)
		}
	}
	require.Len(t, anchors, 4)
	assert.Equal(t, [2]float64{0, 0}, [2]float64{anchors[0].X, anchors[0].Y})
	assert.Equal(t, [2]float64{cfg.Width, cfg.Height}, [2]float64{anchors[3].X, anchors[3].Y})
	assert.Equal(t, cfg.Width, g.Width)
}

func TestBuildTopology_AliasesPolledAddresses(t *testing.T) {
	snaps := map[string]*model.InstanceSnapshot{
		"10.0.0.11:8089": {
			MgmtHost: "10.0.0.11", MgmtPort: 8089,
			Host:  model.Some("idx1.example.com"),
			Roles: model.KnownList([]string{"indexer"}),
		},
		"10.0.0.50:8089": {
			MgmtHost:       "10.0.0.50",
			ServerName:     model.Some("uf1"),
			Roles:          model.KnownList([]string{"universal_forwarder"}),
			ForwardServers: model.KnownList([]model.ForwardServer{{Destination: "10.0.0.11:9997"}}),
		},
	}
	cfg := config.DefaultTopology()
	cfg.ResolveDNS = false
	g, err := BuildTopology(snaps, cfg, fakeResolver{})
	require.NoError(t, err)

	_, ok := g.Node("10.0.0.11")
	assert.False(t, ok, "the management IP is an alias of the polled node")
	_, ok = g.Edge("uf1", "idx1")
	assert.True(t, ok)
}

func TestBuildTopology_InsufficientData(t *testing.T) {
	cfg := config.DefaultTopology()

	_, err := BuildTopology(nil, cfg, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	lone := map[string]*model.InstanceSnapshot{
		"sh1:8089": {MgmtHost: "sh1", Roles: model.KnownList([]string{"search_head"})},
	}
	_, err = BuildTopology(lone, cfg, nil)
	assert.ErrorIs(t, err, ErrInsufficientData, "the synthetic user node does not count")
}

func TestBuildTopology_Toggles(t *testing.T) {
	cfg := config.DefaultTopology()
	style := cfg.Buckets[model.BucketIndexer.String()]
	style.Enabled = false
	cfg.Buckets[model.BucketIndexer.String()] = style
	cfg.Rules[config.RuleWeb] = false

	g, err := BuildTopology(deploymentSnapshots(), cfg, nil)
	require.NoError(t, err)

	for _, n := range g.SemanticNodes() {
		assert.NotEqual(t, model.BucketIndexer, n.Bucket, n.ID)
		assert.NotEqual(t, UserNodeID, n.ID)
	}
	for _, e := range g.Edges {
		assert.NotEqual(t, model.AdjacencyWeb, e.Kind)
		assert.NotEqual(t, model.AdjacencyBucketReplication, e.Kind)
	}
}

func TestBuildTopology_LayersAndDeterminism(t *testing.T) {
	cfg := config.DefaultTopology()
	g1, err := BuildTopology(deploymentSnapshots(), cfg, nil)
	require.NoError(t, err)
	g2, err := BuildTopology(deploymentSnapshots(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, g1, g2)

	idx1, _ := g1.Node("idx1")
	idx2, _ := g1.Node("idx2")
	layer := cfg.Bucket(model.BucketIndexer)
	assert.Equal(t, layer.LayerY, idx1.Y)
	assert.Equal(t, layer.LayerY, idx2.Y)
	assert.Less(t, idx1.X, idx2.X, "nodes in a layer are ordered by id")
	assert.Equal(t, cfg.Spacing, idx2.X-idx1.X)
}

func TestLayerXs(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		width   float64
		spacing float64
		align   string
		want    []float64
	}{
		{"center", 3, 1200, 110, config.AlignCenter, []float64{490, 600, 710}},
		{"left", 2, 1200, 110, config.AlignLeft, []float64{55, 165}},
		{"right", 2, 1200, 110, config.AlignRight, []float64{1035, 1145}},
		{"justified on overflow", 3, 300, 110, config.AlignLeft, []float64{75, 150, 225}},
		{"empty", 0, 1200, 110, config.AlignCenter, []float64{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tc.want, layerXs(tc.n, tc.width, tc.spacing, tc.align), 1e-9)
		})
	}
}
