package engine

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dm/spm-go/internal/format"
	"github.com/dm/spm-go/internal/model"
)

// ErrUnknownSection is returned by BuildSection for a name not in
// SectionNames.
var ErrUnknownSection = errors.New("unknown section")

// Section names, in display order.
const (
	SectionMessages    = "messages"
	SectionPorts       = "ports"
	SectionFileInputs  = "inputs"
	SectionTCP         = "tcp"
	SectionApps        = "apps"
	SectionPeers       = "peers"
	SectionIndexes     = "indexes"
	SectionSearchHeads = "searchheads"
	SectionMembers     = "members"
	SectionProcesses   = "processes"
	SectionPartitions  = "partitions"
)

// SectionNames lists every section BuildSection accepts.
var SectionNames = []string{
	SectionMessages, SectionPorts, SectionFileInputs, SectionTCP, SectionApps,
	SectionPeers, SectionIndexes, SectionSearchHeads, SectionMembers,
	SectionProcesses, SectionPartitions,
}

const timeLayout = "2006-01-02 15:04:05"

// BuildSection renders one list of snap as a table.
func BuildSection(snap *model.InstanceSnapshot, name string) (model.Table, error) {
	t := model.Table{Name: name}
	switch name {
	case SectionMessages:
		t.Title = "Messages"
		t.Columns = []string{"Time", "Severity", "Title", "Description"}
		t.Known = snap.Messages.Known
		for _, m := range snap.Messages.Items {
			t.Rows = append(t.Rows, []string{formatTime(m.Time), m.Severity, m.Title, m.Description})
		}

	case SectionPorts:
		t.Title = "Ports"
		t.Columns = []string{"Service", "Port", "Status"}
		t.Rows, t.Known = portTableRows(snap)

	case SectionFileInputs:
		t.Title = "File Inputs"
		t.Columns = []string{"Path", "Type", "Percent", "Status"}
		t.Known = snap.FileInputs.Known
		for _, f := range snap.FileInputs.Items {
			t.Rows = append(t.Rows, []string{f.Path, f.Type, f.Percent, f.Status})
		}

	case SectionTCP:
		t.Title = "TCP Connections"
		t.Columns = []string{"Type", "Port", "Source", "Bytes"}
		t.Known = snap.RawTCPConnections.Known || snap.CookedTCPConnections.Known
		for _, group := range []struct {
			kind  string
			conns []model.TCPConnection
		}{
			{"Raw", snap.RawTCPConnections.Items},
			{"Cooked", snap.CookedTCPConnections.Items},
		} {
			for _, c := range group.conns {
				t.Rows = append(t.Rows, []string{group.kind, c.Port, c.Source, format.FormatBytes(c.Bytes)})
			}
		}

	case SectionApps:
		t.Title = "Apps"
		t.Columns = []string{"Name", "Label", "Version", "Disabled", "Visible"}
		t.Known = snap.Apps.Known
		for _, a := range snap.Apps.Items {
			t.Rows = append(t.Rows, []string{a.Name, a.Label, a.Version, yesNo(a.Disabled), yesNo(a.Visible)})
		}

	case SectionPeers:
		t.Title = "Cluster Peers"
		t.Columns = []string{"Name", "Site", "Searchable", "Status", "Buckets", "Location", "Last Heartbeat", "Replication Port", "GUID"}
		t.Known = snap.Cluster.Peers.Known
		for _, p := range snap.Cluster.Peers.Items {
			t.Rows = append(t.Rows, []string{
				p.Name, p.Site, yesNo(p.Searchable), p.Status, format.FormatNumber(int64(p.Buckets)),
				p.Location, formatTime(p.LastHeartbeat), p.ReplicationPort, p.GUID,
			})
		}

	case SectionIndexes:
		t.Title = "Cluster Indexes"
		t.Columns = []string{"Name", "Searchable", "Searchable Copies", "Replicated Copies", "Buckets", "Size"}
		t.Known = snap.Cluster.Indexes.Known
		for _, idx := range snap.Cluster.Indexes.Items {
			t.Rows = append(t.Rows, []string{
				idx.Name, yesNo(idx.Searchable), idx.SearchableCopies, idx.ReplicatedCopies,
				format.FormatNumber(int64(idx.Buckets)), format.FormatGB(idx.SizeGB),
			})
		}

	case SectionSearchHeads:
		t.Title = "Cluster Search Heads"
		t.Columns = []string{"Name", "Site", "Status", "Location", "GUID"}
		t.Known = snap.Cluster.SearchHeads.Known
		for _, sh := range snap.Cluster.SearchHeads.Items {
			t.Rows = append(t.Rows, []string{sh.Name, sh.Site, sh.Status, sh.Location, sh.GUID})
		}

	case SectionMembers:
		t.Title = "SHC Members"
		t.Columns = []string{"Label", "Site", "Status", "Artifacts", "Location", "Last Heartbeat", "Replication Port", "Restart Required", "GUID"}
		t.Known = snap.SHCluster.Members.Known
		for _, m := range snap.SHCluster.Members.Items {
			t.Rows = append(t.Rows, []string{
				m.Label, m.Site, m.Status, format.FormatNumber(int64(m.Artifacts)), m.Location,
				formatTime(m.LastHeartbeat), m.ReplicationPort, yesNo(m.RestartRequired), m.GUID,
			})
		}

	case SectionProcesses:
		t.Title = "Splunk Processes"
		t.Columns = []string{"Name", "PID", "Parent PID", "CPU", "Memory", "Args"}
		t.Known = snap.SplunkProcesses.Known
		for _, p := range snap.SplunkProcesses.Items {
			t.Rows = append(t.Rows, []string{
				p.Name, strconv.Itoa(p.PID), strconv.Itoa(p.PPID),
				format.FormatPercent(p.CPUPercent), format.FormatPercent(p.MemPercent), p.Args,
			})
		}

	case SectionPartitions:
		t.Title = "Disk Partitions"
		t.Columns = []string{"Mount", "Type", "Used", "Total"}
		t.Known = snap.DiskPartitions.Known
		for _, d := range snap.DiskPartitions.Items {
			used := unknownValue
			if v, ok := d.UsedPercent.Get(); ok {
				used = format.FormatPercent(v)
			}
			t.Rows = append(t.Rows, []string{d.Mount, d.FSType, used, format.FormatGB(d.TotalGB)})
		}

	default:
		return model.Table{}, fmt.Errorf("%w %q (want one of %v)", ErrUnknownSection, name, SectionNames)
	}
	return t, nil
}

// portTableRows lists splunkweb, receiving, raw TCP, UDP and KV store ports.
func portTableRows(snap *model.InstanceSnapshot) ([][]string, bool) {
	var rows [][]string
	known := false

	if port, ok := snap.HTTPPort.Get(); ok {
		known = true
		status := "disabled"
		if snap.HTTPServer.Or(true) {
			status = "http"
			if snap.HTTPSSL.Or(false) {
				status = "https"
			}
		}
		rows = append(rows, []string{"Splunk Web", strconv.Itoa(port), status})
	}
	for _, l := range []struct {
		service string
		ports   model.List[string]
	}{
		{"Receiving", snap.ReceivingPorts},
		{"Raw TCP", snap.RawTCPPorts},
		{"UDP", snap.UDPPorts},
	} {
		known = known || l.ports.Known
		for _, p := range l.ports.Items {
			rows = append(rows, []string{l.service, p, "listening"})
		}
	}
	if port, ok := snap.KVStorePort.Get(); ok {
		known = true
		rows = append(rows, []string{"KV Store", strconv.Itoa(port), snap.KVStoreStatus.Or(unknownValue)})
	}
	return rows, known
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
