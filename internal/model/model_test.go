package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpt(t *testing.T) {
	var unknown Opt[int]
	_, ok := unknown.Get()
	assert.False(t, ok)
	assert.Equal(t, 7, unknown.Or(7))

	v, ok := Some(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 0, Some(0).Or(9), "known zero is not replaced")
}

func TestKnownListDistinctFromUnknown(t *testing.T) {
	var unknown List[string]
	empty := KnownList[string](nil)

	assert.False(t, unknown.Known)
	assert.True(t, empty.Known)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.Len())
}

func TestHealth_WorseAndString(t *testing.T) {
	assert.Equal(t, HealthWarning, HealthOK.Worse(HealthWarning))
	assert.Equal(t, HealthWarning, HealthWarning.Worse(HealthCaution))
	assert.Equal(t, HealthCaution, HealthCaution.Worse(HealthUnknown))
	assert.Equal(t, HealthOK, HealthOK.Worse(HealthNA))

	assert.Equal(t, "N/A", HealthNA.String())
	assert.Equal(t, "Unknown", HealthUnknown.String())
	assert.Equal(t, "Caution", HealthCaution.String())
}

func TestReport_FindWorstCount(t *testing.T) {
	r := Report{Rows: []Row{
		{Category: CategoryServer, Name: "Version", Health: HealthCaution, Value: "5.5.1"},
		{Category: CategoryResources, Name: "CPU Usage", Health: HealthWarning, Value: "95%"},
		{Category: CategoryCounts, Name: "Apps", Health: HealthNA, Value: "12"},
	}}

	row, ok := r.Find(CategoryResources, "CPU Usage")
	assert.True(t, ok)
	assert.Equal(t, "95%", row.Value)

	_, ok = r.Find(CategoryCluster, "IC Label")
	assert.False(t, ok)

	assert.Equal(t, HealthWarning, r.Worst())
	assert.Equal(t, 1, r.Count(HealthNA))
}

func TestCandidateKey(t *testing.T) {
	assert.Equal(t, "splunk1:8089", Candidate{Address: "splunk1"}.Key())
	assert.Equal(t, "10.0.0.1:18089", Candidate{Address: "10.0.0.1", Port: 18089}.Key())
}

func TestSnapshotHelpers(t *testing.T) {
	snap := &InstanceSnapshot{
		MgmtHost: "idx1",
		MgmtPort: 8089,
		Roles:    KnownList([]string{"indexer", "cluster_slave"}),
	}
	assert.Equal(t, "idx1:8089", snap.Address())
	assert.True(t, snap.HasRole("cluster_slave"))
	assert.False(t, snap.HasRole("cluster_master"))

	snap.Cluster.Peers = KnownList([]ClusterPeer{{Searchable: true}, {Searchable: false}, {Searchable: true}})
	snap.Cluster.SearchHeads = KnownList([]ClusterSearchHead{{Status: "Connected"}, {Status: "Disconnected"}})
	snap.SHCluster.Members = KnownList([]SHCMember{{Status: "Up"}, {Status: "Down"}})
	assert.Equal(t, 2, snap.Cluster.SearchablePeers())
	assert.Equal(t, 1, snap.Cluster.ConnectedSearchHeads())
	assert.Equal(t, 1, snap.SHCluster.MembersUp())
}

func TestParseHealthColor(t *testing.T) {
	assert.Equal(t, HealthColorGreen, ParseHealthColor("green"))
	assert.Equal(t, HealthColorRed, ParseHealthColor("red"))
	assert.Equal(t, HealthColorUnknown, ParseHealthColor(""))
	assert.Equal(t, "yellow", HealthColorYellow.String())
}

func TestGraphLookups(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "corner-nw", Anchor: true}},
		Edges: []Edge{{From: "a", To: "b", Kind: AdjacencyLicense}},
	}
	_, ok := g.Node("b")
	assert.True(t, ok)
	e, ok := g.Edge("b", "a")
	assert.True(t, ok)
	assert.Equal(t, AdjacencyLicense, e.Kind)
	assert.Len(t, g.SemanticNodes(), 2)
	assert.Equal(t, "search_head", BucketSearchHead.String())
	assert.Equal(t, "data_forwarding", AdjacencyDataForwarding.String())
}
