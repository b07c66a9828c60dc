package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dm/spm-go/internal/model"
)

var nonAlphaNum = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeID converts a node identity into a valid D2 identifier.
func SanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "-", ".", "-", "/", "-", ":", "-").Replace(s)
	s = nonAlphaNum.ReplaceAllString(s, "")
	if s == "" {
		return "unknown"
	}
	return s
}

// Quote wraps s in double quotes for D2 labels. Newlines become \n escapes.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}

var bucketTitles = map[model.Bucket]string{
	model.BucketUser:               "Users",
	model.BucketSearchHead:         "Search Heads",
	model.BucketIndexer:            "Indexers",
	model.BucketHeavyForwarder:     "Heavy Forwarders",
	model.BucketUniversalForwarder: "Universal Forwarders",
	model.BucketManagementConsole:  "Management Console",
	model.BucketSHCDeployer:        "SHC Deployer",
	model.BucketClusterMaster:      "Cluster Master",
	model.BucketDeploymentServer:   "Deployment Server",
	model.BucketLicenseMaster:      "License Master",
	model.BucketInput:              "Inputs",
	model.BucketOther:              "Other",
}

// WriteD2 renders g as a D2 diagram with one container per bucket. Anchor
// nodes are layout artefacts and are not rendered.
func WriteD2(w io.Writer, g *model.Graph) error {
	var b strings.Builder
	b.WriteString("direction: down\n\n")

	paths := make(map[string]string, len(g.Nodes))
	for _, bucket := range model.Buckets {
		var nodes []model.Node
		for _, n := range g.Nodes {
			if !n.Anchor && n.Bucket == bucket {
				nodes = append(nodes, n)
			}
		}
		if len(nodes) == 0 {
			continue
		}

		container := SanitizeID(bucket.String())
		fmt.Fprintf(&b, "%s: %s {\n", container, Quote(bucketTitles[bucket]))
		for _, n := range nodes {
			id := SanitizeID(n.ID)
			paths[n.ID] = container + "." + id
			fmt.Fprintf(&b, "  %s: %s {\n", id, Quote(n.Label))
			if n.Color != "" {
				fmt.Fprintf(&b, "    style.fill: %q\n", n.Color)
			}
			if !n.Polled && n.Bucket != model.BucketUser {
				b.WriteString("    style.stroke-dash: 3\n")
			}
			b.WriteString("  }\n")
		}
		b.WriteString("}\n\n")
	}

	for _, e := range g.Edges {
		from, ok1 := paths[e.From]
		to, ok2 := paths[e.To]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&b, "%s -> %s: %s", from, to, Quote(e.Kind.String()))
		if e.Color != "" {
			fmt.Fprintf(&b, " {\n  style.stroke: %q\n}\n", e.Color)
		} else {
			b.WriteString("\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("WriteD2: %w", err)
	}
	return nil
}
