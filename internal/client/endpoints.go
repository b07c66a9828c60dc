package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

const (
	EndpointServerInfo          = "/services/server/info"
	EndpointServerSettings      = "/services/server/settings"
	EndpointServerRoles         = "/services/server/roles"
	EndpointMessages            = "/services/messages"
	EndpointApps                = "/services/apps/local"
	EndpointPartitionsSpace     = "/services/server/status/partitions-space"
	EndpointHostwide            = "/services/server/status/resource-usage/hostwide"
	EndpointSplunkProcesses     = "/services/server/status/resource-usage/splunk-processes"
	EndpointHealthDetails       = "/services/server/health/splunkd/details"
	EndpointInputsCooked        = "/services/data/inputs/tcp/cooked"
	EndpointInputsRaw           = "/services/data/inputs/tcp/raw"
	EndpointInputsUDP           = "/services/data/inputs/udp"
	EndpointInputStatus         = "/services/admin/inputstatus"
	EndpointKVStoreStatus       = "/services/kvstore/status"
	EndpointForwardServers      = "/services/data/outputs/tcp/server"
	EndpointDistributedPeers    = "/services/search/distributed/peers"
	EndpointDeploymentClients   = "/services/deployment/server/clients"
	EndpointLicenseLocalSlave   = "/services/licenser/localslave"
	EndpointLicenseSlaves       = "/services/licenser/slaves"
	EndpointClusterConfig       = "/services/cluster/config"
	EndpointClusterMasterInfo   = "/services/cluster/master/info"
	EndpointClusterGeneration   = "/services/cluster/master/generation/master"
	EndpointClusterPeers        = "/services/cluster/master/peers"
	EndpointClusterIndexes      = "/services/cluster/master/indexes"
	EndpointClusterSearchHeads  = "/services/cluster/master/searchheads"
	EndpointSHClusterConfig     = "/services/shcluster/config"
	EndpointSHClusterStatus     = "/services/shcluster/status"
	EndpointSHClusterMembers    = "/services/shcluster/member/members"
	EndpointProperties          = "/services/properties"
	EndpointDeploymentClientTgt = "/services/properties/deploymentclient/target-broker:deploymentServer"
	EndpointRestart             = "/services/server/control/restart"
	EndpointAdminReload         = "/servicesNS/admin/search/admin"
)

// reloadExtras are refreshed on every RefreshConfig even though the admin
// listing does not advertise them.
var reloadExtras = []string{
	"admin/conf-times",
	"data/ui/manager",
	"data/ui/nav",
	"data/ui/views",
}

var reloadLinkRe = regexp.MustCompile(`/servicesNS/[^/]+/[^/]+/(.+)/_reload$`)

// Get fetches path as a JSON feed with every entry on one page.
func (c *DefaultClient) Get(ctx context.Context, path string) (*Feed, error) {
	body, err := c.do(ctx, http.MethodGet, path, url.Values{"output_mode": {"json"}, "count": {"-1"}}, nil)
	if err != nil {
		return nil, fmt.Errorf("Get %s: %w", path, err)
	}

	var feed Feed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("Get %s decode: %w", path, err)
	}
	return &feed, nil
}

// GetRaw fetches path and returns the trimmed body. Single property keys are
// served as text/plain.
func (c *DefaultClient) GetRaw(ctx context.Context, path string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return "", fmt.Errorf("GetRaw %s: %w", path, err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Post submits form to path and decodes the response feed. An empty body is
// returned as an empty feed.
func (c *DefaultClient) Post(ctx context.Context, path string, form url.Values) (*Feed, error) {
	if form == nil {
		form = url.Values{}
	}
	body, err := c.do(ctx, http.MethodPost, path, url.Values{"output_mode": {"json"}}, form)
	if err != nil {
		return nil, fmt.Errorf("Post %s: %w", path, err)
	}

	var feed Feed
	if len(strings.TrimSpace(string(body))) == 0 {
		return &feed, nil
	}
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("Post %s decode: %w", path, err)
	}
	return &feed, nil
}

// RestCall issues an arbitrary request. params are sent as the query string
// for GET and DELETE and as the form body for POST. A JSON feed response is
// decoded into Feed; Text always carries the raw body.
func (c *DefaultClient) RestCall(ctx context.Context, method, path string, params url.Values) (*RestResult, error) {
	method = strings.ToUpper(method)
	query := url.Values{"output_mode": {"json"}}
	var form url.Values

	switch method {
	case http.MethodGet, http.MethodDelete:
		for k, vs := range params {
			query[k] = vs
		}
	case http.MethodPost:
		form = params
		if form == nil {
			form = url.Values{}
		}
	default:
		return nil, fmt.Errorf("RestCall: unsupported method %q", method)
	}

	body, err := c.do(ctx, method, path, query, form)
	if err != nil {
		return nil, fmt.Errorf("RestCall %s %s: %w", method, path, err)
	}

	res := &RestResult{Text: string(body)}
	var feed Feed
	if err := json.Unmarshal(body, &feed); err == nil {
		res.Feed = &feed
	}
	return res, nil
}

// SetDeploymentServer points the deployment client at uri, or disables the
// client when uri is empty. splunkd must be restarted afterwards for the
// change to apply.
func (c *DefaultClient) SetDeploymentServer(ctx context.Context, uri string) error {
	form := url.Values{"disabled": {"1"}, "targetUri": {""}}
	if uri != "" {
		form = url.Values{"disabled": {"0"}, "targetUri": {uri}}
	}

	feed, err := c.Post(ctx, EndpointDeploymentClientTgt, form)
	if err != nil {
		return fmt.Errorf("SetDeploymentServer: %w", err)
	}
	for _, m := range feed.Messages {
		if !strings.EqualFold(m.Type, "INFO") {
			return fmt.Errorf("SetDeploymentServer: %s", m.Text)
		}
		if strings.Contains(m.Text, "modified 0 key") {
			return fmt.Errorf("SetDeploymentServer: no changes made: %s", m.Text)
		}
	}
	return nil
}

// Restart asks splunkd to restart. The connection usually drops before a
// response arrives, so a ConnectionError is not treated as a failure.
func (c *DefaultClient) Restart(ctx context.Context) error {
	_, err := c.Post(ctx, EndpointRestart, nil)
	if err != nil && !IsConnectionError(err) {
		return fmt.Errorf("Restart: %w", err)
	}
	return nil
}

// ConfigKVPairs renders the effective contents of a .conf file as
// "[stanza]" blocks of sorted "key = value" lines. Internal eai: keys are
// skipped.
func (c *DefaultClient) ConfigKVPairs(ctx context.Context, file string) (string, error) {
	base := EndpointProperties + "/" + url.PathEscape(file)
	stanzas, err := c.Get(ctx, base)
	if err != nil {
		return "", fmt.Errorf("ConfigKVPairs: %w", err)
	}

	var b strings.Builder
	for _, st := range stanzas.Entries {
		fmt.Fprintf(&b, "[%s]\n", st.Name)

		keys, err := c.Get(ctx, base+"/"+url.PathEscape(st.Name))
		if err != nil && !IsNotFound(err) {
			return "", fmt.Errorf("ConfigKVPairs [%s]: %w", st.Name, err)
		}
		var pairs []string
		if keys != nil {
			for _, k := range keys.Entries {
				if strings.HasPrefix(k.Name, "eai:") {
					continue
				}
				pairs = append(pairs, fmt.Sprintf("%s = %s", k.Name, k.Content.Text()))
			}
		}
		sort.Strings(pairs)
		for _, p := range pairs {
			b.WriteString(p)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ReloadResult is the outcome of reloading one admin endpoint.
type ReloadResult struct {
	Endpoint string
	Err      error
}

// RefreshConfig reloads every admin endpoint advertising a _reload link, the
// way /debug/refresh does in Splunk Web. auth-services is skipped since
// reloading it logs every session out; fifo is skipped on Windows hosts.
func (c *DefaultClient) RefreshConfig(ctx context.Context, windows bool) ([]ReloadResult, error) {
	feed, err := c.Get(ctx, EndpointAdminReload)
	if err != nil {
		return nil, fmt.Errorf("RefreshConfig: %w", err)
	}

	endpoints := append([]string(nil), reloadExtras...)
	for _, e := range feed.Entries {
		if e.Name == "auth-services" || (windows && e.Name == "fifo") {
			continue
		}
		href, ok := e.Links["_reload"]
		if !ok {
			continue
		}
		if m := reloadLinkRe.FindStringSubmatch(href); m != nil {
			endpoints = append(endpoints, m[1])
		}
	}

	results := make([]ReloadResult, 0, len(endpoints))
	for _, name := range endpoints {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		_, err := c.Post(ctx, "/servicesNS/admin/search/"+name+"/_reload", nil)
		results = append(results, ReloadResult{Endpoint: name, Err: err})
	}
	return results, nil
}
