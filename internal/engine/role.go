package engine

import (
	"strings"

	"github.com/dm/spm-go/internal/model"
)

// roleRule maps one classification predicate to a primary role.
type roleRule struct {
	role  model.PrimaryRole
	match func(roles map[string]bool, mode string) bool
}

func hasTag(tag string) func(map[string]bool, string) bool {
	return func(roles map[string]bool, _ string) bool { return roles[tag] }
}

// roleRules is evaluated top to bottom; the first match wins. The order is
// splunkd's precedence when an instance carries several role tags.
var roleRules = []roleRule{
	{model.RoleUniversalForwarder, hasTag("universal_forwarder")},
	{model.RoleManagementConsole, hasTag("management_console")},
	{model.RoleIndexerClusterSlave, hasTag("cluster_slave")},
	{model.RoleIndexerStandalone, hasTag("indexer")},
	{model.RoleSHCDeployer, hasTag("shc_deployer")},
	{model.RoleSHCaptain, hasTag("shc_captain")},
	{model.RoleSHCMember, hasTag("shc_member")},
	{model.RoleClusterMaster, hasTag("cluster_master")},
	{model.RoleSearchHeadStandalone, hasTag("search_head")},
	{model.RoleDeploymentServer, hasTag("deployment_server")},
	{model.RoleHeavyForwarder, hasTag("heavyweight_forwarder")},
	{model.RoleLicenseMaster, hasTag("license_master")},
	{model.RoleForwarder, func(_ map[string]bool, mode string) bool {
		return strings.EqualFold(strings.TrimSpace(mode), "dedicated forwarder")
	}},
}

func roleSet(roles []string) map[string]bool {
	set := make(map[string]bool, len(roles))
	for _, r := range roles {
		set[strings.ToLower(strings.TrimSpace(r))] = true
	}
	return set
}

// ClassifyRole returns the primary role of an instance. Instances reporting
// no recognised role (older splunkd versions) classify as HeavyForwarder.
func ClassifyRole(roles []string, mode string) model.PrimaryRole {
	set := roleSet(roles)
	for _, r := range roleRules {
		if r.match(set, mode) {
			return r.role
		}
	}
	return model.RoleHeavyForwarder
}

// MatchingRoles returns every rule that matches, in precedence order. The
// first element equals ClassifyRole unless nothing matched.
func MatchingRoles(roles []string, mode string) []model.PrimaryRole {
	set := roleSet(roles)
	var out []model.PrimaryRole
	for _, r := range roleRules {
		if r.match(set, mode) {
			out = append(out, r.role)
		}
	}
	return out
}

// BucketFor maps a primary role onto its topology bucket.
func BucketFor(role model.PrimaryRole) model.Bucket {
	switch role {
	case model.RoleUniversalForwarder:
		return model.BucketUniversalForwarder
	case model.RoleManagementConsole:
		return model.BucketManagementConsole
	case model.RoleIndexerClusterSlave, model.RoleIndexerStandalone:
		return model.BucketIndexer
	case model.RoleSHCDeployer:
		return model.BucketSHCDeployer
	case model.RoleSHCaptain, model.RoleSHCMember, model.RoleSearchHeadStandalone:
		return model.BucketSearchHead
	case model.RoleClusterMaster:
		return model.BucketClusterMaster
	case model.RoleDeploymentServer:
		return model.BucketDeploymentServer
	case model.RoleLicenseMaster:
		return model.BucketLicenseMaster
	case model.RoleHeavyForwarder, model.RoleForwarder:
		return model.BucketHeavyForwarder
	default:
		return model.BucketOther
	}
}
