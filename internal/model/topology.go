package model

// Bucket groups topology nodes into layers.
type Bucket int

const (
	BucketUser Bucket = iota
	BucketSearchHead
	BucketIndexer
	BucketHeavyForwarder
	BucketUniversalForwarder
	BucketManagementConsole
	BucketSHCDeployer
	BucketClusterMaster
	BucketDeploymentServer
	BucketLicenseMaster
	BucketInput
	BucketOther
)

// Buckets lists every bucket in layer order.
var Buckets = []Bucket{
	BucketUser,
	BucketSearchHead,
	BucketIndexer,
	BucketHeavyForwarder,
	BucketUniversalForwarder,
	BucketManagementConsole,
	BucketSHCDeployer,
	BucketClusterMaster,
	BucketDeploymentServer,
	BucketLicenseMaster,
	BucketInput,
	BucketOther,
}

var bucketNames = map[Bucket]string{
	BucketUser:               "user",
	BucketSearchHead:         "search_head",
	BucketIndexer:            "indexer",
	BucketHeavyForwarder:     "heavy_forwarder",
	BucketUniversalForwarder: "universal_forwarder",
	BucketManagementConsole:  "management_console",
	BucketSHCDeployer:        "shc_deployer",
	BucketClusterMaster:      "cluster_master",
	BucketDeploymentServer:   "deployment_server",
	BucketLicenseMaster:      "license_master",
	BucketInput:              "input",
	BucketOther:              "other",
}

// String returns the config key of the bucket, e.g. "search_head".
func (b Bucket) String() string {
	if s, ok := bucketNames[b]; ok {
		return s
	}
	return "other"
}

// AdjacencyKind is the semantic type of a topology edge.
type AdjacencyKind int

const (
	AdjacencyWeb AdjacencyKind = iota
	AdjacencyDistributedSearch
	AdjacencyBucketReplication
	AdjacencyDataForwarding
	AdjacencyDeployment
	AdjacencyLicense
	AdjacencySHCDeployment
	AdjacencyClusterManagement
)

var adjacencyNames = map[AdjacencyKind]string{
	AdjacencyWeb:               "web",
	AdjacencyDistributedSearch: "distributed_search",
	AdjacencyBucketReplication: "bucket_replication",
	AdjacencyDataForwarding:    "data_forwarding",
	AdjacencyDeployment:        "deployment",
	AdjacencyLicense:           "license",
	AdjacencySHCDeployment:     "shc_deployment",
	AdjacencyClusterManagement: "cluster_management",
}

func (k AdjacencyKind) String() string {
	if s, ok := adjacencyNames[k]; ok {
		return s
	}
	return "unknown"
}

// Node is a vertex of the topology graph. Anchor nodes are invisible corner
// markers that fix the canvas extent.
type Node struct {
	ID     string
	Bucket Bucket
	Label  string
	Color  string
	X, Y   float64
	Polled bool
	Anchor bool
}

// Edge connects two nodes. From/To are stored in the order the adjacency
// was discovered but edges are unique per unordered pair.
type Edge struct {
	From  string
	To    string
	Kind  AdjacencyKind
	Color string
}

// Graph is an immutable topology built from a discovery run.
type Graph struct {
	Nodes  []Node
	Edges  []Edge
	Width  float64
	Height float64
	// Skipped lists "rule/instance" pairs whose reference data was unknown.
	Skipped []string
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge between a and b in either direction.
func (g *Graph) Edge(a, b string) (Edge, bool) {
	for _, e := range g.Edges {
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			return e, true
		}
	}
	return Edge{}, false
}

// SemanticNodes returns every node that is not an anchor.
func (g *Graph) SemanticNodes() []Node {
	out := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if !n.Anchor {
			out = append(out, n)
		}
	}
	return out
}
