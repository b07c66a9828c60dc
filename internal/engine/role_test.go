package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dm/spm-go/internal/model"
)

func TestClassifyRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		mode  string
		want  model.PrimaryRole
	}{
		{"universal forwarder wins", []string{"indexer", "universal_forwarder"}, "", model.RoleUniversalForwarder},
		{"management console", []string{"management_console", "search_head"}, "", model.RoleManagementConsole},
		{"cluster peer", []string{"indexer", "cluster_slave", "search_peer"}, "", model.RoleIndexerClusterSlave},
		{"master with indexer is indexer", []string{"cluster_master", "indexer"}, "", model.RoleIndexerStandalone},
		{"cluster master", []string{"cluster_master", "search_head"}, "", model.RoleClusterMaster},
		{"shc deployer", []string{"shc_deployer", "search_head"}, "", model.RoleSHCDeployer},
		{"captain before member", []string{"shc_member", "shc_captain"}, "", model.RoleSHCaptain},
		{"shc member", []string{"shc_member", "search_head"}, "", model.RoleSHCMember},
		{"search head", []string{"search_head", "kv_store"}, "", model.RoleSearchHeadStandalone},
		{"deployment server", []string{"deployment_server"}, "", model.RoleDeploymentServer},
		{"heavy forwarder", []string{"heavyweight_forwarder", "license_master"}, "", model.RoleHeavyForwarder},
		{"license master", []string{"license_master"}, "", model.RoleLicenseMaster},
		{"dedicated forwarder mode", nil, "Dedicated Forwarder", model.RoleForwarder},
		{"case and whitespace", []string{" Search_Head "}, "", model.RoleSearchHeadStandalone},
		{"unknown tags fall back", []string{"kv_store", "something_new"}, "normal", model.RoleHeavyForwarder},
		{"empty", nil, "", model.RoleHeavyForwarder},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyRole(tc.roles, tc.mode))
		})
	}
}

func TestClassifyRole_OrderInsensitive(t *testing.T) {
	a := ClassifyRole([]string{"search_head", "deployment_server", "license_master"}, "")
	b := ClassifyRole([]string{"license_master", "deployment_server", "search_head"}, "")
	assert.Equal(t, a, b)
}

func TestMatchingRoles(t *testing.T) {
	got := MatchingRoles([]string{"license_master", "cluster_master", "search_head"}, "")
	assert.Equal(t, []model.PrimaryRole{model.RoleClusterMaster, model.RoleSearchHeadStandalone, model.RoleLicenseMaster}, got)
	assert.Empty(t, MatchingRoles([]string{"kv_store"}, ""))
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, model.BucketIndexer, BucketFor(model.RoleIndexerClusterSlave))
	assert.Equal(t, model.BucketSearchHead, BucketFor(model.RoleSHCaptain))
	assert.Equal(t, model.BucketHeavyForwarder, BucketFor(model.RoleForwarder))
	assert.Equal(t, model.BucketUniversalForwarder, BucketFor(model.RoleUniversalForwarder))
	assert.Equal(t, model.BucketOther, BucketFor(model.PrimaryRole(99)))
}
