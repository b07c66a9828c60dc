package model

// PrimaryRole is the single best-guess classification of an instance.
type PrimaryRole int

const (
	RoleHeavyForwarder PrimaryRole = iota
	RoleUniversalForwarder
	RoleManagementConsole
	RoleIndexerClusterSlave
	RoleIndexerStandalone
	RoleSHCDeployer
	RoleSHCaptain
	RoleSHCMember
	RoleClusterMaster
	RoleSearchHeadStandalone
	RoleDeploymentServer
	RoleLicenseMaster
	RoleForwarder
)

var roleLabels = map[PrimaryRole]string{
	RoleHeavyForwarder:       "Heavy Forwarder",
	RoleUniversalForwarder:   "Universal Forwarder",
	RoleManagementConsole:    "Management Console",
	RoleIndexerClusterSlave:  "Indexer (Cluster Peer)",
	RoleIndexerStandalone:    "Indexer",
	RoleSHCDeployer:          "SHC Deployer",
	RoleSHCaptain:            "SHC Captain",
	RoleSHCMember:            "SHC Member",
	RoleClusterMaster:        "Cluster Master",
	RoleSearchHeadStandalone: "Search Head",
	RoleDeploymentServer:     "Deployment Server",
	RoleLicenseMaster:        "License Master",
	RoleForwarder:            "Forwarder",
}

func (r PrimaryRole) String() string {
	if s, ok := roleLabels[r]; ok {
		return s
	}
	return "Unknown"
}
