package config

import "github.com/dm/spm-go/internal/model"

// Layer alignments.
const (
	AlignLeft   = "left"
	AlignRight  = "right"
	AlignCenter = "center"
)

// Adjacency rule names used as toggles under topology.rules.
const (
	RuleWeb               = "web"
	RuleDistributedSearch = "distributed_search"
	RuleBucketReplication = "bucket_replication"
	RuleClusterManagement = "cluster_management"
	RuleDataForwarding    = "data_forwarding"
	RuleDataInputs        = "data_inputs"
	RuleDeployment        = "deployment"
	RuleLicense           = "license"
	RuleSHCDeployment     = "shc_deployment"
)

// BucketStyle controls how one role bucket is drawn.
type BucketStyle struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	Color   string  `mapstructure:"color" yaml:"color"`
	LayerY  float64 `mapstructure:"layer_y" yaml:"layer_y"`
	Align   string  `mapstructure:"align" yaml:"align"`
}

// Topology holds the topology styling and rule toggles.
type Topology struct {
	Width      float64                `mapstructure:"width" yaml:"width"`
	Height     float64                `mapstructure:"height" yaml:"height"`
	Spacing    float64                `mapstructure:"spacing" yaml:"spacing"`
	ResolveDNS bool                   `mapstructure:"resolve_dns" yaml:"resolve_dns"`
	Buckets    map[string]BucketStyle `mapstructure:"buckets" yaml:"buckets"`
	Rules      map[string]bool        `mapstructure:"rules" yaml:"rules"`
	EdgeColors map[string]string      `mapstructure:"edge_colors" yaml:"edge_colors"`
}

// Bucket returns the style of b. Unconfigured buckets are disabled.
func (t Topology) Bucket(b model.Bucket) BucketStyle {
	return t.Buckets[b.String()]
}

// RuleEnabled reports whether an adjacency rule is on. Unlisted rules are on.
func (t Topology) RuleEnabled(name string) bool {
	on, ok := t.Rules[name]
	return !ok || on
}

// EdgeColor returns the configured color of an adjacency kind.
func (t Topology) EdgeColor(k model.AdjacencyKind) string {
	if c, ok := t.EdgeColors[k.String()]; ok {
		return c
	}
	return "#888888"
}

// DefaultTopology returns a 1200x840 canvas with one layer per bucket.
func DefaultTopology() Topology {
	return Topology{
		Width:      1200,
		Height:     840,
		Spacing:    110,
		ResolveDNS: true,
		Buckets: map[string]BucketStyle{
			model.BucketUser.String():               {Enabled: true, Color: "#9CA3AF", LayerY: 30, Align: AlignCenter},
			model.BucketManagementConsole.String():  {Enabled: true, Color: "#A855F7", LayerY: 100, Align: AlignLeft},
			model.BucketSHCDeployer.String():        {Enabled: true, Color: "#EC4899", LayerY: 170, Align: AlignRight},
			model.BucketSearchHead.String():         {Enabled: true, Color: "#22C55E", LayerY: 240, Align: AlignCenter},
			model.BucketClusterMaster.String():      {Enabled: true, Color: "#F97316", LayerY: 310, Align: AlignLeft},
			model.BucketLicenseMaster.String():      {Enabled: true, Color: "#EAB308", LayerY: 380, Align: AlignRight},
			model.BucketDeploymentServer.String():   {Enabled: true, Color: "#14B8A6", LayerY: 450, Align: AlignLeft},
			model.BucketIndexer.String():            {Enabled: true, Color: "#3B82F6", LayerY: 520, Align: AlignCenter},
			model.BucketHeavyForwarder.String():     {Enabled: true, Color: "#6366F1", LayerY: 590, Align: AlignCenter},
			model.BucketUniversalForwarder.String(): {Enabled: true, Color: "#06B6D4", LayerY: 660, Align: AlignCenter},
			model.BucketInput.String():              {Enabled: true, Color: "#84CC16", LayerY: 730, Align: AlignCenter},
			model.BucketOther.String():              {Enabled: true, Color: "#6B7280", LayerY: 800, Align: AlignCenter},
		},
		Rules: map[string]bool{
			RuleWeb:               true,
			RuleDistributedSearch: true,
			RuleBucketReplication: true,
			RuleClusterManagement: true,
			RuleDataForwarding:    true,
			RuleDataInputs:        true,
			RuleDeployment:        true,
			RuleLicense:           true,
			RuleSHCDeployment:     true,
		},
		EdgeColors: map[string]string{
			model.AdjacencyWeb.String():               "#9CA3AF",
			model.AdjacencyDistributedSearch.String(): "#22C55E",
			model.AdjacencyBucketReplication.String(): "#3B82F6",
			model.AdjacencyDataForwarding.String():    "#6366F1",
			model.AdjacencyDeployment.String():        "#14B8A6",
			model.AdjacencyLicense.String():           "#EAB308",
			model.AdjacencySHCDeployment.String():     "#EC4899",
			model.AdjacencyClusterManagement.String(): "#F97316",
		},
	}
}
