package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dm/spm-go/internal/client"
	"github.com/dm/spm-go/internal/model"
)

// safeDivide returns a/b, or false when b is zero.
func safeDivide(a, b float64) (float64, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}

// CalcResources derives usage percentages from the hostwide resource-usage
// entry. CPU is 100 minus the idle percentage; memory and swap are used/total.
// A zero total leaves that usage unknown.
func CalcResources(c client.Content) model.Resources {
	var r model.Resources
	if idle, ok := c.Float("cpu_idle_pct"); ok {
		r.CPUUsage = model.Some(100 - idle)
	}

	mem, memOK := c.Float("mem")
	used, usedOK := c.Float("mem_used")
	if memOK {
		r.MemMB = model.Some(mem)
	}
	if usedOK {
		r.MemUsedMB = model.Some(used)
	}
	if memOK && usedOK {
		if pct, ok := safeDivide(used, mem); ok {
			r.MemUsage = model.Some(pct * 100)
		}
	}

	swap, swapOK := c.Float("swap")
	swapUsed, swapUsedOK := c.Float("swap_used")
	if swapOK {
		r.SwapMB = model.Some(swap)
	}
	if swapUsedOK {
		r.SwapUsed = model.Some(swapUsed)
	}
	if swapOK && swapUsedOK {
		if pct, ok := safeDivide(swapUsed, swap); ok {
			r.SwapUsage = model.Some(pct * 100)
		}
	}
	return r
}

// CalcDiskPartition converts one partitions-space entry. free and capacity
// are in MB; a zero capacity leaves UsedPercent unknown.
func CalcDiskPartition(c client.Content) model.DiskPartition {
	mount, _ := c.Str("mount_point")
	fsType, _ := c.Str("fs_type")
	p := model.DiskPartition{Mount: mount, FSType: fsType}

	capacity, capOK := c.Float("capacity")
	free, freeOK := c.Float("free")
	if capOK {
		p.TotalGB = capacity / 1024
	}
	if capOK && freeOK {
		if pct, ok := safeDivide(capacity-free, capacity); ok {
			p.UsedPercent = model.Some(pct * 100)
		}
	}
	return p
}

// FormatCopyTracker renders a searchable/replicated copies tracker as
// "<slots> (<pct>:<pct>...%)", e.g. "2 (100:50%)". Slots are keyed "0",
// "1", ... and each holds actual_copies_per_slot and expected_total_per_slot.
func FormatCopyTracker(tracker client.Content) string {
	keys := make([]int, 0, len(tracker))
	for k := range tracker {
		if i, err := strconv.Atoi(k); err == nil {
			keys = append(keys, i)
		}
	}
	sort.Ints(keys)

	var b strings.Builder
	b.WriteString(strconv.Itoa(len(keys)))
	if len(keys) == 0 {
		return b.String()
	}
	b.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(':')
		}
		slot, _ := tracker.Map(strconv.Itoa(k))
		actual, aok := slot.Float("actual_copies_per_slot")
		expected, eok := slot.Float("expected_total_per_slot")
		pct, dok := safeDivide(actual, expected)
		if !aok || !eok || !dok {
			b.WriteByte('?')
			continue
		}
		fmt.Fprintf(&b, "%.0f", pct*100)
	}
	b.WriteString("%)")
	return b.String()
}

// MinorVersion parses "major.minor[.patch...]" into major.minor as a float,
// so "9.1.2" becomes 9.1.
func MinorVersion(v string) (float64, bool) {
	parts := strings.SplitN(strings.TrimSpace(v), ".", 3)
	if len(parts) < 2 {
		return 0, false
	}
	f, err := strconv.ParseFloat(parts[0]+"."+parts[1], 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// InstanceType returns the product description shown in the report, e.g.
// "Splunk Enterprise v9.1.2".
func InstanceType(snap *model.InstanceSnapshot) string {
	version, ok := snap.Version.Get()
	if !ok {
		return "?"
	}
	product := snap.Product.Or("")
	switch {
	case snap.HasRole("universal_forwarder"):
		return "Splunk Universal Forwarder v" + version
	case product == "enterprise":
		return "Splunk Enterprise v" + version
	case product == "hunk":
		return "Splunk Hunk v" + version
	case product == "lite":
		return "Splunk Lite v" + version
	case product == "lite_free":
		return "Splunk Lite Free v" + version
	case strings.EqualFold(snap.Mode.Or(""), "dedicated forwarder"):
		return "Splunk Forwarder v" + version
	default:
		return "Splunk v" + version
	}
}

// describeOS builds the OS string from server/info. os_name_extended is
// preferred when splunkd reports it.
func describeOS(c client.Content) (string, bool) {
	arch, _ := c.Str("cpu_arch")
	if ext, ok := c.Str("os_name_extended"); ok && ext != "" {
		return strings.TrimSpace(ext + " " + arch), true
	}
	name, ok := c.Str("os_name")
	if !ok {
		return "", false
	}
	version, _ := c.Str("os_version")
	build, _ := c.Str("os_build")
	if name == "Windows" {
		return strings.TrimSpace(fmt.Sprintf("%s %s.%s %s", name, build, version, arch)), true
	}
	return strings.Join(strings.Fields(fmt.Sprintf("%s %s %s %s", name, version, arch, build)), " "), true
}
