package engine

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dm/spm-go/internal/client"
	"github.com/dm/spm-go/internal/model"
)

var uriHostPortRe = regexp.MustCompile(`^https?://([^/]+)`)

// hostPortFromURI extracts "host:port" from an http(s) URI. Other values are
// returned trimmed.
func hostPortFromURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if m := uriHostPortRe.FindStringSubmatch(uri); m != nil {
		return m[1]
	}
	return uri
}

func optStr(c client.Content, key string) model.Opt[string] {
	if s, ok := c.Str(key); ok {
		return model.Some(s)
	}
	return model.Opt[string]{}
}

func optInt(c client.Content, key string) model.Opt[int] {
	if i, ok := c.Int(key); ok {
		return model.Some(i)
	}
	return model.Opt[int]{}
}

func optBool(c client.Content, key string) model.Opt[bool] {
	if b, ok := c.Bool(key); ok {
		return model.Some(b)
	}
	return model.Opt[bool]{}
}

func epoch(c client.Content, key string) time.Time {
	f, ok := c.Float(key)
	if !ok || f <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(f), 0)
}

// applyServerInfo copies /services/server/info into snap.
func applyServerInfo(snap *model.InstanceSnapshot, c client.Content) {
	snap.ServerName = optStr(c, "serverName")
	snap.GUID = optStr(c, "guid")
	snap.Version = optStr(c, "version")
	snap.Product = optStr(c, "product_type")
	snap.Mode = optStr(c, "mode")
	snap.Cores = optInt(c, "numberOfCores")
	snap.RAMMB = optInt(c, "physicalMemoryMB")
	if roles, ok := c.Strings("server_roles"); ok {
		snap.Roles = model.KnownList(roles)
	}
	if t := epoch(c, "startup_time"); !t.IsZero() {
		snap.StartupTime = model.Some(t)
	}
	if osName, ok := describeOS(c); ok {
		snap.OS = model.Some(osName)
	}
	if h, ok := c.Str("health_info"); ok {
		snap.SplunkdHealth = model.ParseHealthColor(h)
	}
}

// applyServerSettings copies /services/server/settings into snap.
func applyServerSettings(snap *model.InstanceSnapshot, c client.Content) {
	snap.Host = optStr(c, "host")
	if !snap.ServerName.Known {
		snap.ServerName = optStr(c, "serverName")
	}
	snap.HTTPPort = optInt(c, "httpport")
	snap.HTTPSSL = optBool(c, "enableSplunkWebSSL")
	snap.HTTPServer = optBool(c, "startwebserver")
}

func parseMessages(feed *client.Feed) []model.Message {
	out := make([]model.Message, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		sev, _ := e.Content.Str("severity")
		text, _ := e.Content.Str("message")
		out = append(out, model.Message{
			Time:        epoch(e.Content, "timeCreated_epochSecs"),
			Severity:    strings.ToUpper(sev),
			Title:       e.Name,
			Description: text,
		})
	}
	return out
}

func parseApps(feed *client.Feed) []model.App {
	out := make([]model.App, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		label, _ := e.Content.Str("label")
		version, ok := e.Content.Str("version")
		if !ok {
			version = "N/A"
		}
		disabled, _ := e.Content.Bool("disabled")
		visible, _ := e.Content.Bool("visible")
		out = append(out, model.App{
			Name:     e.Name,
			Label:    label,
			Version:  version,
			Disabled: disabled,
			Visible:  visible,
		})
	}
	return out
}

// entryNames returns the entry names of feed, e.g. the ports of an inputs
// listing.
func entryNames(feed *client.Feed) []string {
	out := make([]string, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		out = append(out, e.Name)
	}
	return out
}

func parsePartitions(feed *client.Feed) []model.DiskPartition {
	out := make([]model.DiskPartition, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		out = append(out, CalcDiskPartition(e.Content))
	}
	return out
}

func parseProcesses(feed *client.Feed) []model.SplunkProcess {
	out := make([]model.SplunkProcess, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		name, _ := e.Content.Str("process")
		pid, _ := e.Content.Int("pid")
		ppid, _ := e.Content.Int("ppid")
		cpu, _ := e.Content.Float("pct_cpu")
		mem, _ := e.Content.Float("pct_memory")
		args, _ := e.Content.Str("args")
		out = append(out, model.SplunkProcess{
			Name:       name,
			PID:        pid,
			PPID:       ppid,
			CPUPercent: cpu,
			MemPercent: mem,
			Args:       args,
		})
	}
	return out
}

// parseHealth reads /services/server/health/splunkd/details. Features nest
// recursively; the map is keyed by the slash-joined feature path.
func parseHealth(feed *client.Feed) (model.HealthColor, map[string]model.HealthColor) {
	e, ok := feed.First()
	if !ok {
		return model.HealthColorUnknown, nil
	}
	overall, _ := e.Content.Str("health")
	features := map[string]model.HealthColor{}
	var walk func(prefix string, c client.Content)
	walk = func(prefix string, c client.Content) {
		for name := range c {
			f, ok := c.Map(name)
			if !ok {
				continue
			}
			path := name
			if prefix != "" {
				path = prefix + "/" + name
			}
			if h, ok := f.Str("health"); ok {
				features[path] = model.ParseHealthColor(h)
			}
			if sub, ok := f.Map("features"); ok {
				walk(path, sub)
			}
		}
	}
	if top, ok := e.Content.Map("features"); ok {
		walk("", top)
	}
	return model.ParseHealthColor(overall), features
}

// parseInputStatus reads /services/admin/inputstatus: monitored files and
// per-connection statistics of the raw and cooked TCP inputs.
func parseInputStatus(feed *client.Feed) (files []model.FileInput, cooked, raw []model.TCPConnection) {
	files, cooked, raw = []model.FileInput{}, []model.TCPConnection{}, []model.TCPConnection{}
	for _, e := range feed.Entries {
		inputs, ok := e.Content.Map("inputs")
		if !ok {
			continue
		}
		switch e.Name {
		case "TailingProcessor:FileStatus":
			for _, path := range sortedKeys(inputs) {
				st, _ := inputs.Map(path)
				typ, _ := st.Str("type")
				pct := ""
				if f, ok := st.Float("percent"); ok {
					pct = trimFloat(f) + "%"
				}
				status, _ := st.Str("file position")
				files = append(files, model.FileInput{Path: path, Type: typ, Percent: pct, Status: status})
			}
		case "Cooked:tcp", "Raw:tcp":
			var conns []model.TCPConnection
			for _, key := range sortedKeys(inputs) {
				if key == "tcp" {
					continue
				}
				port, source, found := strings.Cut(key, ":")
				if !found {
					port, source = "0", key
				}
				st, _ := inputs.Map(key)
				b, _ := st.Float("total bytes")
				conns = append(conns, model.TCPConnection{Port: port, Source: source, Bytes: int64(b)})
			}
			if e.Name == "Cooked:tcp" {
				cooked = append(cooked, conns...)
			} else {
				raw = append(raw, conns...)
			}
		}
	}
	return files, cooked, raw
}

func sortedKeys(c client.Content) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseForwardServers(feed *client.Feed) []model.ForwardServer {
	out := make([]model.ForwardServer, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		status, _ := e.Content.Str("status")
		out = append(out, model.ForwardServer{Destination: e.Name, Status: status})
	}
	return out
}

func parseSearchPeers(feed *client.Feed) []model.SearchPeer {
	out := make([]model.SearchPeer, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		peer, _ := e.Content.Str("peerName")
		status, _ := e.Content.Str("status")
		out = append(out, model.SearchPeer{Name: e.Name, Peer: peer, Status: status})
	}
	return out
}

func parseDeploymentClients(feed *client.Feed) []model.DeploymentClient {
	out := make([]model.DeploymentClient, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		hostname, _ := e.Content.Str("hostname")
		ip, _ := e.Content.Str("ip")
		dns, _ := e.Content.Str("dns")
		out = append(out, model.DeploymentClient{Name: e.Name, Hostname: hostname, IP: ip, DNS: dns})
	}
	return out
}

func parseLicenseSlaves(feed *client.Feed) []string {
	out := make([]string, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		label, ok := e.Content.Str("label")
		if !ok || label == "" {
			label = e.Name
		}
		out = append(out, label)
	}
	return out
}

func applyClusterConfig(ci *model.ClusterInfo, c client.Content) {
	ci.Mode = optStr(c, "mode")
	ci.Site = optStr(c, "site")
	ci.Label = optStr(c, "cluster_label")
	ci.ReplicationPort = optInt(c, "replication_port")
	ci.ReplicationFactor = optInt(c, "replication_factor")
	ci.SearchFactor = optInt(c, "search_factor")
}

func applyClusterMasterInfo(ci *model.ClusterInfo, c client.Content) {
	ci.Maintenance = optBool(c, "maintenance_mode")
	ci.RollingRestart = optBool(c, "rolling_restart_flag")
	ci.Initialized = optBool(c, "initialized_flag")
	ci.ServiceReady = optBool(c, "service_ready_flag")
	ci.IndexingReady = optBool(c, "indexing_ready_flag")
}

// applyClusterGeneration reads the master generation. All data is searchable
// when no pending reason is recorded.
func applyClusterGeneration(ci *model.ClusterInfo, c client.Content) {
	if c.Has("pending_last_reason") {
		reason, _ := c.Str("pending_last_reason")
		ci.AllDataSearchable = model.Some(c.IsNull("pending_last_reason") || reason == "")
	}
	ci.SearchFactorMet = optBool(c, "search_factor_met")
	ci.ReplicationFactorMet = optBool(c, "replication_factor_met")
}

func parseClusterPeers(feed *client.Feed) []model.ClusterPeer {
	out := make([]model.ClusterPeer, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		c := e.Content
		label, _ := c.Str("label")
		site, _ := c.Str("site")
		searchable, _ := c.Bool("is_searchable")
		status, _ := c.Str("status")
		buckets, _ := c.Int("bucket_count")
		location, _ := c.Str("host_port_pair")
		repl, _ := c.Str("replication_port")
		out = append(out, model.ClusterPeer{
			GUID:            e.Name,
			Name:            label,
			Site:            site,
			Searchable:      searchable,
			Status:          status,
			Buckets:         buckets,
			Location:        location,
			LastHeartbeat:   epoch(c, "last_heartbeat"),
			ReplicationPort: repl,
		})
	}
	return out
}

func parseClusterIndexes(feed *client.Feed) []model.ClusterIndex {
	out := make([]model.ClusterIndex, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		c := e.Content
		searchable, _ := c.Bool("is_searchable")
		buckets, _ := c.Int("num_buckets")
		size, _ := c.Float("index_size")
		idx := model.ClusterIndex{
			Name:       e.Name,
			Searchable: searchable,
			Buckets:    buckets,
			SizeGB:     size / 1024 / 1024 / 1024,
		}
		if t, ok := c.Map("searchable_copies_tracker"); ok {
			idx.SearchableCopies = FormatCopyTracker(t)
		}
		if t, ok := c.Map("replicated_copies_tracker"); ok {
			idx.ReplicatedCopies = FormatCopyTracker(t)
		}
		out = append(out, idx)
	}
	return out
}

func parseClusterSearchHeads(feed *client.Feed) []model.ClusterSearchHead {
	out := make([]model.ClusterSearchHead, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		label, _ := e.Content.Str("label")
		site, _ := e.Content.Str("site")
		status, _ := e.Content.Str("status")
		location, _ := e.Content.Str("host_port_pair")
		out = append(out, model.ClusterSearchHead{
			GUID:     e.Name,
			Name:     label,
			Site:     site,
			Status:   status,
			Location: location,
		})
	}
	return out
}

func applySHCConfig(si *model.SHClusterInfo, c client.Content) {
	si.Label = optStr(c, "shcluster_label")
	si.ReplicationPort = optInt(c, "replication_port")
	si.ReplicationFactor = optInt(c, "replication_factor")
}

func applySHCCaptain(si *model.SHClusterInfo, captain client.Content) {
	si.CaptainLabel = optStr(captain, "label")
	si.CaptainURI = optStr(captain, "mgmt_uri")
	si.CaptainID = optStr(captain, "id")
	si.DynamicCaptain = optBool(captain, "dynamic_captain")
	si.RollingRestart = optBool(captain, "rolling_restart_flag")
	si.ServiceReady = optBool(captain, "service_ready_flag")
	si.MinPeersJoined = optBool(captain, "min_peers_joined_flag")
	si.Initialized = optBool(captain, "initialized_flag")
}

func parseSHCMembers(feed *client.Feed) []model.SHCMember {
	out := make([]model.SHCMember, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		c := e.Content
		label, _ := c.Str("label")
		site, _ := c.Str("site")
		status, _ := c.Str("status")
		artifacts, _ := c.Int("artifact_count")
		location, _ := c.Str("host_port_pair")
		repl, _ := c.Str("replication_port")
		restart, _ := c.Bool("advertise_restart_required")
		out = append(out, model.SHCMember{
			GUID:            e.Name,
			Label:           label,
			Site:            site,
			Status:          status,
			Artifacts:       artifacts,
			Location:        location,
			LastHeartbeat:   epoch(c, "last_heartbeat"),
			ReplicationPort: repl,
			RestartRequired: restart,
		})
	}
	return out
}
