package model

import "time"

// HealthColor is splunkd's self-reported health.
type HealthColor int

const (
	HealthColorUnknown HealthColor = iota
	HealthColorGreen
	HealthColorYellow
	HealthColorRed
)

// ParseHealthColor maps "green", "yellow" and "red" to a HealthColor.
// Anything else is HealthColorUnknown.
func ParseHealthColor(s string) HealthColor {
	switch s {
	case "green":
		return HealthColorGreen
	case "yellow":
		return HealthColorYellow
	case "red":
		return HealthColorRed
	default:
		return HealthColorUnknown
	}
}

func (c HealthColor) String() string {
	switch c {
	case HealthColorGreen:
		return "green"
	case HealthColorYellow:
		return "yellow"
	case HealthColorRed:
		return "red"
	default:
		return "unknown"
	}
}

// Message is one entry of /services/messages.
type Message struct {
	Time        time.Time
	Severity    string
	Title       string
	Description string
}

// App is one installed app from /services/apps/local.
type App struct {
	Name     string
	Label    string
	Version  string
	Disabled bool
	Visible  bool
}

// DiskPartition is one mount from partitions-space. UsedPercent is unknown
// when the mount reports zero capacity.
type DiskPartition struct {
	Mount       string
	FSType      string
	UsedPercent Opt[float64]
	TotalGB     float64
}

// SplunkProcess is one process from resource-usage/splunk-processes.
type SplunkProcess struct {
	Name       string
	PID        int
	PPID       int
	CPUPercent float64
	MemPercent float64
	Args       string
}

// Resources holds hostwide usage. Percentages are 0-100.
type Resources struct {
	CPUUsage  Opt[float64]
	MemUsage  Opt[float64]
	MemMB     Opt[float64]
	MemUsedMB Opt[float64]
	SwapUsage Opt[float64]
	SwapMB    Opt[float64]
	SwapUsed  Opt[float64]
}

// FileInput is a tailed file from the TailingProcessor input status.
type FileInput struct {
	Path    string
	Type    string
	Percent string
	Status  string
}

// TCPConnection is an inbound connection to a raw or cooked TCP input.
type TCPConnection struct {
	Port   string
	Source string
	Bytes  int64
}

// ClusterPeer is an indexer as seen by the cluster master.
type ClusterPeer struct {
	GUID            string
	Name            string
	Site            string
	Searchable      bool
	Status          string
	Buckets         int
	Location        string
	LastHeartbeat   time.Time
	ReplicationPort string
}

// ClusterIndex is an index as seen by the cluster master. The copy strings
// look like "2 (100:100%)".
type ClusterIndex struct {
	Name             string
	Searchable       bool
	Buckets          int
	SizeGB           float64
	SearchableCopies string
	ReplicatedCopies string
}

// ClusterSearchHead is a search head attached to the cluster master.
type ClusterSearchHead struct {
	GUID     string
	Name     string
	Site     string
	Status   string
	Location string
}

// ClusterInfo holds indexer cluster state.
type ClusterInfo struct {
	Mode                 Opt[string]
	Site                 Opt[string]
	Label                Opt[string]
	ReplicationPort      Opt[int]
	ReplicationFactor    Opt[int]
	SearchFactor         Opt[int]
	Maintenance          Opt[bool]
	RollingRestart       Opt[bool]
	Initialized          Opt[bool]
	ServiceReady         Opt[bool]
	IndexingReady        Opt[bool]
	AllDataSearchable    Opt[bool]
	SearchFactorMet      Opt[bool]
	ReplicationFactorMet Opt[bool]
	Peers                List[ClusterPeer]
	Indexes              List[ClusterIndex]
	SearchHeads          List[ClusterSearchHead]
}

// SearchablePeers counts peers flagged searchable.
func (c ClusterInfo) SearchablePeers() int {
	n := 0
	for _, p := range c.Peers.Items {
		if p.Searchable {
			n++
		}
	}
	return n
}

// ConnectedSearchHeads counts search heads with status "Connected".
func (c ClusterInfo) ConnectedSearchHeads() int {
	n := 0
	for _, sh := range c.SearchHeads.Items {
		if sh.Status == "Connected" {
			n++
		}
	}
	return n
}

// SHCMember is one search head cluster member.
type SHCMember struct {
	GUID            string
	Label           string
	Site            string
	Status          string
	Artifacts       int
	Location        string
	LastHeartbeat   time.Time
	ReplicationPort string
	RestartRequired bool
}

// SHClusterInfo holds search head cluster state.
type SHClusterInfo struct {
	Label             Opt[string]
	ReplicationFactor Opt[int]
	ReplicationPort   Opt[int]
	CaptainLabel      Opt[string]
	CaptainURI        Opt[string]
	CaptainID         Opt[string]
	DynamicCaptain    Opt[bool]
	RollingRestart    Opt[bool]
	ServiceReady      Opt[bool]
	MinPeersJoined    Opt[bool]
	Initialized       Opt[bool]
	Members           List[SHCMember]
}

// MembersUp counts members with status "Up".
func (s SHClusterInfo) MembersUp() int {
	n := 0
	for _, m := range s.Members.Items {
		if m.Status == "Up" {
			n++
		}
	}
	return n
}

// DeploymentClient is a phone-home client of a deployment server.
type DeploymentClient struct {
	Name     string
	Hostname string
	IP       string
	DNS      string
}

// ForwardServer is an outputs.conf tcpout receiver.
type ForwardServer struct {
	Destination string
	Status      string
}

// SearchPeer is a distributed search peer.
type SearchPeer struct {
	Name   string
	Peer   string
	Status string
}

// InstanceSnapshot holds everything polled from one Splunk instance in one
// poll cycle. It is not modified after Poll returns.
type InstanceSnapshot struct {
	MgmtHost   string
	MgmtPort   int
	Host       Opt[string]
	ServerName Opt[string]
	GUID       Opt[string]

	Roles       List[string]
	Mode        Opt[string]
	Product     Opt[string]
	Version     Opt[string]
	OS          Opt[string]
	StartupTime Opt[time.Time]
	Cores       Opt[int]
	RAMMB       Opt[int]

	HTTPPort   Opt[int]
	HTTPServer Opt[bool]
	HTTPSSL    Opt[bool]

	ReceivingPorts List[string]
	RawTCPPorts    List[string]
	UDPPorts       List[string]
	KVStorePort    Opt[int]
	KVStoreStatus  Opt[string]

	Resources       Resources
	DiskPartitions  List[DiskPartition]
	SplunkProcesses List[SplunkProcess]

	Cluster   ClusterInfo
	SHCluster SHClusterInfo

	DeploymentServer       Opt[string]
	DeploymentClients      List[DeploymentClient]
	LicenseMaster          Opt[string]
	LicenseSlaves          List[string]
	ForwardServers         List[ForwardServer]
	DistributedSearchPeers List[SearchPeer]
	CookedTCPConnections   List[TCPConnection]
	RawTCPConnections      List[TCPConnection]
	FileInputs             List[FileInput]
	SHClusterDeployer      Opt[string]
	ClusterMasterURI       Opt[string]

	SplunkdHealth HealthColor
	FeatureHealth map[string]HealthColor

	Messages List[Message]
	Apps     List[App]

	FetchedAt time.Time
}

// Address returns "host:port" of the management endpoint.
func (s *InstanceSnapshot) Address() string {
	return JoinHostPort(s.MgmtHost, s.MgmtPort)
}

// HasRole reports whether the instance lists role among its server roles.
func (s *InstanceSnapshot) HasRole(role string) bool {
	for _, r := range s.Roles.Items {
		if r == role {
			return true
		}
	}
	return false
}
