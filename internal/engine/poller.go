package engine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/dm/spm-go/internal/client"
	"github.com/dm/spm-go/internal/model"
)

// Sentinels stored in adjacency fields.
const (
	SentinelNone     = "(none)"
	SentinelSelf     = "(self)"
	SentinelDisabled = "(disabled)"
)

// pollConcurrency bounds the number of in-flight endpoint requests per
// instance.
const pollConcurrency = 4

// pollTask fills a disjoint set of snapshot fields. Tasks run concurrently and
// must not touch fields owned by another task.
type pollTask struct {
	name string
	run  func(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error
}

var pollTasks = []pollTask{
	{"settings", pollSettings},
	{"messages", pollMessages},
	{"apps", pollApps},
	{"deployment client", pollDeploymentClient},
	{"inputs", pollInputs},
	{"input status", pollInputStatus},
	{"kvstore", pollKVStore},
	{"indexer cluster", pollCluster},
	{"search head cluster", pollSHCluster},
	{"shc deployer", pollSHCDeployer},
	{"partitions", pollPartitions},
	{"hostwide", pollHostwide},
	{"processes", pollProcesses},
	{"health", pollHealth},
	{"forward servers", pollForwardServers},
	{"search peers", pollSearchPeers},
	{"deployment clients", pollDeploymentClients},
	{"license master", pollLicenseMaster},
	{"license slaves", pollLicenseSlaves},
}

// Poll collects one snapshot from the instance behind c. server/info must
// succeed: its auth and connection failures are returned unchanged, anything
// else is reported as a *client.ConnectionError. Every other endpoint is
// best-effort; a failure leaves its fields unknown and is logged at debug.
func Poll(ctx context.Context, c client.SplunkClient, logger log.Logger) (*model.InstanceSnapshot, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	host, port := mgmtAddress(c.BaseURL())
	snap := &model.InstanceSnapshot{MgmtHost: host, MgmtPort: port}
	logger = log.With(logger, "instance", snap.Address())

	info, err := c.Get(ctx, client.EndpointServerInfo)
	if err != nil {
		if client.IsAuthError(err) || client.IsConnectionError(err) {
			return nil, err
		}
		return nil, &client.ConnectionError{URL: c.BaseURL(), Err: err}
	}
	entry, ok := info.First()
	if !ok {
		return nil, &client.ConnectionError{URL: c.BaseURL(), Err: fmt.Errorf("GetServerInfo: empty feed")}
	}
	applyServerInfo(snap, entry.Content)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pollConcurrency)
	for _, task := range pollTasks {
		g.Go(func() error {
			if err := task.run(gctx, c, snap); err != nil {
				level.Debug(logger).Log("msg", "endpoint group failed", "group", task.name, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}

// mgmtAddress splits a management URL into host and port, defaulting the
// port to 8089.
func mgmtAddress(baseURL string) (string, int) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL, model.DefaultMgmtPort
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		port = model.DefaultMgmtPort
	}
	return u.Hostname(), port
}

// getFeed treats 404 as an empty feed. Role-specific endpoints answer 404 on
// instances without that role.
func getFeed(ctx context.Context, c client.SplunkClient, path string) (*client.Feed, error) {
	feed, err := c.Get(ctx, path)
	if client.IsNotFound(err) {
		return &client.Feed{}, nil
	}
	return feed, err
}

// getProperty reads one conf key via /services/properties. found is false on
// 404.
func getProperty(ctx context.Context, c client.SplunkClient, file, stanza, key string) (value string, found bool, err error) {
	path := client.EndpointProperties + "/" + file + "/" + url.PathEscape(stanza) + "/" + key
	value, err = c.GetRaw(ctx, path)
	if client.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func pollSettings(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := c.Get(ctx, client.EndpointServerSettings)
	if err != nil {
		return err
	}
	if e, ok := feed.First(); ok {
		applyServerSettings(snap, e.Content)
	}
	return nil
}

func pollMessages(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := getFeed(ctx, c, client.EndpointMessages)
	if err != nil {
		return err
	}
	snap.Messages = model.KnownList(parseMessages(feed))
	return nil
}

func pollApps(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := getFeed(ctx, c, client.EndpointApps)
	if err != nil {
		return err
	}
	snap.Apps = model.KnownList(parseApps(feed))
	return nil
}

func pollDeploymentClient(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	disabled, _, err := getProperty(ctx, c, "deploymentclient", "deployment-client", "disabled")
	if err != nil {
		return err
	}
	if disabled == "1" || strings.EqualFold(disabled, "true") {
		snap.DeploymentServer = model.Some(SentinelDisabled)
		return nil
	}
	uri, _, err := getProperty(ctx, c, "deploymentclient", "target-broker:deploymentServer", "targetUri")
	if err != nil {
		return err
	}
	if uri == "" {
		uri = SentinelNone
	}
	snap.DeploymentServer = model.Some(uri)
	return nil
}

func pollInputs(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	var firstErr error
	for _, in := range []struct {
		path string
		dst  *model.List[string]
	}{
		{client.EndpointInputsCooked, &snap.ReceivingPorts},
		{client.EndpointInputsRaw, &snap.RawTCPPorts},
		{client.EndpointInputsUDP, &snap.UDPPorts},
	} {
		feed, err := getFeed(ctx, c, in.path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		*in.dst = model.KnownList(entryNames(feed))
	}
	return firstErr
}

func pollInputStatus(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := getFeed(ctx, c, client.EndpointInputStatus)
	if err != nil {
		return err
	}
	files, cooked, raw := parseInputStatus(feed)
	snap.FileInputs = model.KnownList(files)
	snap.CookedTCPConnections = model.KnownList(cooked)
	snap.RawTCPConnections = model.KnownList(raw)
	return nil
}

func pollKVStore(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := c.Get(ctx, client.EndpointKVStoreStatus)
	if err != nil {
		return err
	}
	e, ok := feed.First()
	if !ok {
		return nil
	}
	if cur, ok := e.Content.Map("current"); ok {
		snap.KVStorePort = optInt(cur, "port")
		snap.KVStoreStatus = optStr(cur, "status")
	}
	return nil
}

func isMasterMode(mode string) bool {
	return mode == "master" || mode == "manager"
}

func pollCluster(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	ci := &snap.Cluster
	feed, err := getFeed(ctx, c, client.EndpointClusterConfig)
	if err != nil {
		return err
	}
	e, ok := feed.First()
	if !ok {
		snap.ClusterMasterURI = model.Some(SentinelNone)
		return nil
	}
	applyClusterConfig(ci, e.Content)

	mode := ci.Mode.Or("")
	switch {
	case isMasterMode(mode):
		snap.ClusterMasterURI = model.Some(SentinelSelf)
	case mode == "slave" || mode == "peer" || mode == "searchhead":
		uris, err := resolveMasterURIs(ctx, c)
		if err != nil {
			return err
		}
		snap.ClusterMasterURI = model.Some(uris)
	default:
		snap.ClusterMasterURI = model.Some(SentinelNone)
	}
	if !isMasterMode(mode) {
		return nil
	}

	if feed, err := c.Get(ctx, client.EndpointClusterMasterInfo); err != nil {
		return err
	} else if e, ok := feed.First(); ok {
		applyClusterMasterInfo(ci, e.Content)
	}
	if feed, err := c.Get(ctx, client.EndpointClusterGeneration); err != nil {
		return err
	} else if e, ok := feed.First(); ok {
		applyClusterGeneration(ci, e.Content)
	}
	feed, err = c.Get(ctx, client.EndpointClusterPeers)
	if err != nil {
		return err
	}
	ci.Peers = model.KnownList(parseClusterPeers(feed))
	feed, err = c.Get(ctx, client.EndpointClusterIndexes)
	if err != nil {
		return err
	}
	ci.Indexes = model.KnownList(parseClusterIndexes(feed))
	feed, err = c.Get(ctx, client.EndpointClusterSearchHeads)
	if err != nil {
		return err
	}
	ci.SearchHeads = model.KnownList(parseClusterSearchHeads(feed))
	return nil
}

// resolveMasterURIs reads clustering master_uri. Multi-cluster search heads
// list "clustermaster:<name>" stanzas whose own master_uri holds the address.
func resolveMasterURIs(ctx context.Context, c client.SplunkClient) (string, error) {
	raw, found, err := getProperty(ctx, c, "server", "clustering", "master_uri")
	if err != nil {
		return "", err
	}
	if !found || raw == "" {
		return SentinelNone, nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.HasPrefix(item, "clustermaster:") {
			uri, _, err := getProperty(ctx, c, "server", item, "master_uri")
			if err != nil {
				return "", err
			}
			item = uri
		}
		if hp := hostPortFromURI(item); hp != "" {
			out = append(out, hp)
		}
	}
	if len(out) == 0 {
		return SentinelNone, nil
	}
	return strings.Join(out, ", "), nil
}

func pollSHCluster(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	si := &snap.SHCluster
	feed, err := getFeed(ctx, c, client.EndpointSHClusterConfig)
	if err != nil {
		return err
	}
	if e, ok := feed.First(); ok {
		applySHCConfig(si, e.Content)
	}
	feed, err = getFeed(ctx, c, client.EndpointSHClusterStatus)
	if err != nil {
		return err
	}
	if e, ok := feed.First(); ok {
		if captain, ok := e.Content.Map("captain"); ok {
			applySHCCaptain(si, captain)
		}
	}
	feed, err = getFeed(ctx, c, client.EndpointSHClusterMembers)
	if err != nil {
		return err
	}
	si.Members = model.KnownList(parseSHCMembers(feed))
	return nil
}

func pollSHCDeployer(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	uri, _, err := getProperty(ctx, c, "server", "shclustering", "conf_deploy_fetch_url")
	if err != nil {
		return err
	}
	if uri = hostPortFromURI(uri); uri == "" {
		uri = SentinelNone
	}
	snap.SHClusterDeployer = model.Some(uri)
	return nil
}

func pollPartitions(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := c.Get(ctx, client.EndpointPartitionsSpace)
	if err != nil {
		return err
	}
	snap.DiskPartitions = model.KnownList(parsePartitions(feed))
	return nil
}

func pollHostwide(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := c.Get(ctx, client.EndpointHostwide)
	if err != nil {
		return err
	}
	if e, ok := feed.First(); ok {
		snap.Resources = CalcResources(e.Content)
	}
	return nil
}

func pollProcesses(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := c.Get(ctx, client.EndpointSplunkProcesses)
	if err != nil {
		return err
	}
	snap.SplunkProcesses = model.KnownList(parseProcesses(feed))
	return nil
}

func pollHealth(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := c.Get(ctx, client.EndpointHealthDetails)
	if err != nil {
		return err
	}
	overall, features := parseHealth(feed)
	if overall != model.HealthColorUnknown {
		snap.SplunkdHealth = overall
	}
	snap.FeatureHealth = features
	return nil
}

func pollForwardServers(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := getFeed(ctx, c, client.EndpointForwardServers)
	if err != nil {
		return err
	}
	snap.ForwardServers = model.KnownList(parseForwardServers(feed))
	return nil
}

func pollSearchPeers(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := getFeed(ctx, c, client.EndpointDistributedPeers)
	if err != nil {
		return err
	}
	snap.DistributedSearchPeers = model.KnownList(parseSearchPeers(feed))
	return nil
}

func pollDeploymentClients(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := getFeed(ctx, c, client.EndpointDeploymentClients)
	if err != nil {
		return err
	}
	snap.DeploymentClients = model.KnownList(parseDeploymentClients(feed))
	return nil
}

func pollLicenseMaster(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := c.Get(ctx, client.EndpointLicenseLocalSlave)
	if err != nil {
		return err
	}
	e, ok := feed.First()
	if !ok {
		return nil
	}
	uri, ok := e.Content.Str("master_uri")
	if !ok {
		return nil
	}
	switch uri = strings.TrimSpace(uri); uri {
	case "self":
		snap.LicenseMaster = model.Some(SentinelSelf)
	case "":
		snap.LicenseMaster = model.Some(SentinelNone)
	default:
		snap.LicenseMaster = model.Some(hostPortFromURI(uri))
	}
	return nil
}

func pollLicenseSlaves(ctx context.Context, c client.SplunkClient, snap *model.InstanceSnapshot) error {
	feed, err := getFeed(ctx, c, client.EndpointLicenseSlaves)
	if err != nil {
		return err
	}
	snap.LicenseSlaves = model.KnownList(parseLicenseSlaves(feed))
	return nil
}
