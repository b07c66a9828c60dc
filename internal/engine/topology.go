package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/model"
)

// ErrInsufficientData is returned when fewer than two instances or referenced
// hosts end up in the graph.
var ErrInsufficientData = errors.New("insufficient data to build topology")

// UserNodeID is the synthetic node representing end users of search heads.
const UserNodeID = "user"

type polledInstance struct {
	id   string
	snap *model.InstanceSnapshot
	role model.PrimaryRole
}

// adjacencyRule adds the edges of one adjacency type. name is the toggle
// under topology.rules.
type adjacencyRule struct {
	name  string
	apply func(b *topologyBuilder)
}

var adjacencyRules = []adjacencyRule{
	{config.RuleWeb, webEdges},
	{config.RuleDistributedSearch, distributedSearchEdges},
	{config.RuleClusterManagement, clusterManagementEdges},
	{config.RuleBucketReplication, bucketReplicationEdges},
	{config.RuleDataForwarding, dataForwardingEdges},
	{config.RuleDataInputs, dataInputEdges},
	{config.RuleSHCDeployment, shcDeploymentEdges},
	{config.RuleLicense, licenseEdges},
	{config.RuleDeployment, deploymentEdges},
}

type topologyBuilder struct {
	cfg      config.Topology
	resolver Resolver

	polled  []polledInstance
	aliases map[string]string
	hidden  map[string]bool
	nodes   map[string]*model.Node
	order   []string
	edgeSet map[[2]string]bool
	edges   []model.Edge
	skipped []string
}

// BuildTopology infers the deployment graph from the snapshots of one
// discovery run. Instances are classified into buckets, adjacency rules
// propose edges and unpolled referenced hosts, and nodes are laid out in
// per-bucket layers. Reverse DNS is only used when cfg.ResolveDNS is set
// and resolver is non-nil.
func BuildTopology(snaps map[string]*model.InstanceSnapshot, cfg config.Topology, resolver Resolver) (*model.Graph, error) {
	if !cfg.ResolveDNS {
		resolver = nil
	}
	b := &topologyBuilder{
		cfg:      cfg,
		resolver: resolver,
		aliases:  map[string]string{},
		hidden:   map[string]bool{},
		nodes:    map[string]*model.Node{},
		edgeSet:  map[[2]string]bool{},
	}
	b.addPolled(snaps)
	for _, rule := range adjacencyRules {
		if cfg.RuleEnabled(rule.name) {
			rule.apply(b)
		}
	}

	semantic := 0
	for _, id := range b.order {
		if id != UserNodeID {
			semantic++
		}
	}
	if semantic < 2 {
		return nil, ErrInsufficientData
	}
	return b.graph(), nil
}

func (b *topologyBuilder) addPolled(snaps map[string]*model.InstanceSnapshot) {
	keys := make([]string, 0, len(snaps))
	for k := range snaps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		snap := snaps[k]
		if snap == nil {
			continue
		}
		id := b.instanceID(snap)
		if id == "" {
			continue
		}
		for _, alias := range []string{snap.MgmtHost, snap.ServerName.Or("")} {
			if a := NormalizeRef(alias, b.resolver); a != "" && a != id {
				b.aliases[a] = id
			}
		}

		roles := snap.Roles.Items
		role := ClassifyRole(roles, snap.Mode.Or(""))
		b.polled = append(b.polled, polledInstance{id: id, snap: snap, role: role})

		bucket := BucketFor(role)
		style := b.cfg.Bucket(bucket)
		if !style.Enabled {
			b.hidden[id] = true
			continue
		}
		if _, dup := b.nodes[id]; dup {
			continue
		}
		labels := []string{id}
		for _, r := range MatchingRoles(roles, snap.Mode.Or("")) {
			labels = append(labels, r.String())
		}
		if len(labels) == 1 {
			labels = append(labels, role.String())
		}
		b.insert(&model.Node{
			ID:     id,
			Bucket: bucket,
			Label:  strings.Join(labels, "\n"),
			Color:  style.Color,
			Polled: true,
		})
	}
}

// instanceID prefers the configured host name over the server name and the
// management address.
func (b *topologyBuilder) instanceID(snap *model.InstanceSnapshot) string {
	for _, ref := range []string{snap.Host.Or(""), snap.ServerName.Or(""), snap.MgmtHost} {
		if isSentinel(ref) {
			continue
		}
		if id := NormalizeRef(ref, b.resolver); id != "" {
			return id
		}
	}
	return ""
}

func (b *topologyBuilder) insert(n *model.Node) {
	b.nodes[n.ID] = n
	b.order = append(b.order, n.ID)
}

// resolve maps a reference onto a node identity, following aliases of polled
// instances.
func (b *topologyBuilder) resolve(ref string) string {
	if isSentinel(ref) {
		return ""
	}
	id := NormalizeRef(ref, b.resolver)
	if alias, ok := b.aliases[id]; ok {
		return alias
	}
	return id
}

// propose ensures a node exists for id, creating a discovered node in bucket
// when needed. It reports whether the node is part of the graph.
func (b *topologyBuilder) propose(id string, bucket model.Bucket) bool {
	if id == "" || b.hidden[id] {
		return false
	}
	if _, ok := b.nodes[id]; ok {
		return true
	}
	style := b.cfg.Bucket(bucket)
	if !style.Enabled {
		b.hidden[id] = true
		return false
	}
	label := id + "\n(discovered)"
	if bucket == model.BucketUser {
		label = id
	}
	b.insert(&model.Node{ID: id, Bucket: bucket, Label: label, Color: style.Color})
	return true
}

// connect adds an edge unless one already joins the pair.
func (b *topologyBuilder) connect(from, to string, kind model.AdjacencyKind) {
	if from == to || b.nodes[from] == nil || b.nodes[to] == nil {
		return
	}
	key := [2]string{from, to}
	if to < from {
		key = [2]string{to, from}
	}
	if b.edgeSet[key] {
		return
	}
	b.edgeSet[key] = true
	b.edges = append(b.edges, model.Edge{From: from, To: to, Kind: kind, Color: b.cfg.EdgeColor(kind)})
}

// link proposes every ref in bucket and connects it to inst. Unknown lists
// are recorded as skipped.
func (b *topologyBuilder) link(rule string, inst polledInstance, known bool, refs []string, bucket model.Bucket, kind model.AdjacencyKind, inbound bool) {
	if !known {
		b.skipped = append(b.skipped, rule+"/"+inst.id)
		return
	}
	for _, ref := range refs {
		id := b.resolve(ref)
		if !b.propose(id, bucket) {
			continue
		}
		if inbound {
			b.connect(id, inst.id, kind)
		} else {
			b.connect(inst.id, id, kind)
		}
	}
}

func (b *topologyBuilder) each(pred func(polledInstance) bool, fn func(polledInstance)) {
	for _, inst := range b.polled {
		if pred(inst) {
			fn(inst)
		}
	}
}

func isSearchHead(inst polledInstance) bool {
	return BucketFor(inst.role) == model.BucketSearchHead
}

func isForwarder(inst polledInstance) bool {
	switch BucketFor(inst.role) {
	case model.BucketHeavyForwarder, model.BucketUniversalForwarder:
		return true
	}
	return false
}

func hasRole(role string) func(polledInstance) bool {
	return func(inst polledInstance) bool { return inst.snap.HasRole(role) }
}

func anyInstance(polledInstance) bool { return true }

func webEdges(b *topologyBuilder) {
	b.each(isSearchHead, func(inst polledInstance) {
		if b.propose(UserNodeID, model.BucketUser) {
			b.connect(UserNodeID, inst.id, model.AdjacencyWeb)
		}
	})
}

func distributedSearchEdges(b *topologyBuilder) {
	b.each(isSearchHead, func(inst polledInstance) {
		peers := inst.snap.DistributedSearchPeers
		refs := make([]string, 0, len(peers.Items))
		for _, p := range peers.Items {
			refs = append(refs, firstNonEmpty(p.Name, p.Peer))
		}
		b.link(config.RuleDistributedSearch, inst, peers.Known, refs, model.BucketIndexer, model.AdjacencyDistributedSearch, false)
	})
}

func clusterManagementEdges(b *topologyBuilder) {
	b.each(hasRole("cluster_master"), func(inst polledInstance) {
		ci := inst.snap.Cluster
		peers := make([]string, 0, len(ci.Peers.Items))
		for _, p := range ci.Peers.Items {
			peers = append(peers, firstNonEmpty(p.Location, p.Name))
		}
		b.link(config.RuleClusterManagement, inst, ci.Peers.Known, peers, model.BucketIndexer, model.AdjacencyClusterManagement, false)

		heads := make([]string, 0, len(ci.SearchHeads.Items))
		for _, sh := range ci.SearchHeads.Items {
			heads = append(heads, firstNonEmpty(sh.Location, sh.Name))
		}
		b.link(config.RuleClusterManagement, inst, ci.SearchHeads.Known, heads, model.BucketSearchHead, model.AdjacencyClusterManagement, false)
	})
	b.each(anyInstance, func(inst polledInstance) {
		uri, ok := inst.snap.ClusterMasterURI.Get()
		if ok && isSentinel(uri) {
			return
		}
		b.link(config.RuleClusterManagement, inst, ok, splitRefs(uri), model.BucketClusterMaster, model.AdjacencyClusterManagement, true)
	})
}

// bucketReplicationEdges joins the peers of each cluster master in a ring,
// ordered by node id.
func bucketReplicationEdges(b *topologyBuilder) {
	b.each(hasRole("cluster_master"), func(inst polledInstance) {
		var ids []string
		seen := map[string]bool{}
		for _, p := range inst.snap.Cluster.Peers.Items {
			id := b.resolve(firstNonEmpty(p.Location, p.Name))
			if id == "" || seen[id] || b.nodes[id] == nil {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		if len(ids) < 2 {
			return
		}
		sort.Strings(ids)
		for i := range ids {
			b.connect(ids[i], ids[(i+1)%len(ids)], model.AdjacencyBucketReplication)
		}
	})
}

func dataForwardingEdges(b *topologyBuilder) {
	b.each(isForwarder, func(inst polledInstance) {
		fs := inst.snap.ForwardServers
		refs := make([]string, 0, len(fs.Items))
		for _, s := range fs.Items {
			refs = append(refs, s.Destination)
		}
		b.link(config.RuleDataForwarding, inst, fs.Known, refs, model.BucketIndexer, model.AdjacencyDataForwarding, false)
	})
}

func dataInputEdges(b *topologyBuilder) {
	b.each(anyInstance, func(inst polledInstance) {
		raw := inst.snap.RawTCPConnections
		b.link(config.RuleDataInputs, inst, raw.Known, connectionSources(raw.Items), model.BucketInput, model.AdjacencyDataForwarding, true)

		cooked := inst.snap.CookedTCPConnections
		b.link(config.RuleDataInputs, inst, cooked.Known, connectionSources(cooked.Items), model.BucketUniversalForwarder, model.AdjacencyDataForwarding, true)
	})
}

func shcDeploymentEdges(b *topologyBuilder) {
	b.each(isSearchHead, func(inst polledInstance) {
		uri, ok := inst.snap.SHClusterDeployer.Get()
		if ok && isSentinel(uri) {
			return
		}
		b.link(config.RuleSHCDeployment, inst, ok, []string{uri}, model.BucketSHCDeployer, model.AdjacencySHCDeployment, true)
	})
}

func licenseEdges(b *topologyBuilder) {
	b.each(anyInstance, func(inst polledInstance) {
		lm, ok := inst.snap.LicenseMaster.Get()
		if ok && isSentinel(lm) {
			return
		}
		b.link(config.RuleLicense, inst, ok, []string{lm}, model.BucketLicenseMaster, model.AdjacencyLicense, true)
	})
	b.each(hasRole("license_master"), func(inst polledInstance) {
		slaves := inst.snap.LicenseSlaves
		b.link(config.RuleLicense, inst, slaves.Known, slaves.Items, model.BucketOther, model.AdjacencyLicense, false)
	})
}

func deploymentEdges(b *topologyBuilder) {
	b.each(hasRole("deployment_server"), func(inst polledInstance) {
		dc := inst.snap.DeploymentClients
		refs := make([]string, 0, len(dc.Items))
		for _, c := range dc.Items {
			refs = append(refs, firstNonEmpty(c.Hostname, c.DNS, c.IP, c.Name))
		}
		b.link(config.RuleDeployment, inst, dc.Known, refs, model.BucketUniversalForwarder, model.AdjacencyDeployment, false)
	})
	b.each(anyInstance, func(inst polledInstance) {
		ds, ok := inst.snap.DeploymentServer.Get()
		if ok && isSentinel(ds) {
			return
		}
		b.link(config.RuleDeployment, inst, ok, []string{ds}, model.BucketDeploymentServer, model.AdjacencyDeployment, true)
	})
}

func connectionSources(conns []model.TCPConnection) []string {
	out := make([]string, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Source)
	}
	return out
}

func splitRefs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (b *topologyBuilder) graph() *model.Graph {
	nodes := make([]*model.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id])
	}
	layoutNodes(nodes, b.cfg)

	g := &model.Graph{
		Width:   b.cfg.Width,
		Height:  b.cfg.Height,
		Nodes:   anchorNodes(b.cfg.Width, b.cfg.Height),
		Edges:   b.edges,
		Skipped: b.skipped,
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Bucket != nodes[j].Bucket {
			return nodes[i].Bucket < nodes[j].Bucket
		}
		return nodes[i].ID < nodes[j].ID
	})
	for _, n := range nodes {
		g.Nodes = append(g.Nodes, *n)
	}
	return g
}

// GraphSummary returns "N nodes, M edges, K skipped".
func GraphSummary(g *model.Graph) string {
	return fmt.Sprintf("%d nodes, %d edges, %d skipped", len(g.SemanticNodes()), len(g.Edges), len(g.Skipped))
}
