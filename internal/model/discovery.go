package model

import (
	"net"
	"strconv"
)

// Candidate is one instance to poll during discovery.
type Candidate struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Address  string `yaml:"address" mapstructure:"address"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	Token    string `yaml:"token,omitempty" mapstructure:"token"`
	Insecure bool   `yaml:"insecure,omitempty" mapstructure:"insecure"`
}

// DefaultMgmtPort is splunkd's default management port.
const DefaultMgmtPort = 8089

// Key returns "address:port", the key of the discovery result map.
func (c Candidate) Key() string {
	port := c.Port
	if port == 0 {
		port = DefaultMgmtPort
	}
	return JoinHostPort(c.Address, port)
}

// JoinHostPort formats host and port like net.JoinHostPort.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// DiscoveryStatus is the per-instance outcome reported during discovery.
type DiscoveryStatus int

const (
	StatusPolling DiscoveryStatus = iota
	StatusOK
	StatusAuthFailed
	StatusConnectFailed
	StatusPollFailed
	StatusSkipped
)

func (s DiscoveryStatus) String() string {
	switch s {
	case StatusPolling:
		return "polling"
	case StatusOK:
		return "ok"
	case StatusAuthFailed:
		return "authentication failed"
	case StatusConnectFailed:
		return "connection failed"
	case StatusPollFailed:
		return "poll failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ProgressEvent reports the state of one candidate. Index is 0-based.
// Report is set when Status is StatusOK.
type ProgressEvent struct {
	Index     int
	Total     int
	Candidate Candidate
	Status    DiscoveryStatus
	Err       error
	Report    *Report
}
