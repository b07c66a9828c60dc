package engine

import (
	"sort"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/model"
)

// anchorNodes returns the four invisible corner nodes of a width x height
// canvas.
func anchorNodes(width, height float64) []model.Node {
	corners := []struct {
		id   string
		x, y float64
	}{
		{"anchor_tl", 0, 0},
		{"anchor_tr", width, 0},
		{"anchor_bl", 0, height},
		{"anchor_br", width, height},
	}
	out := make([]model.Node, 0, len(corners))
	for _, c := range corners {
		out = append(out, model.Node{ID: c.id, Bucket: model.BucketOther, X: c.x, Y: c.y, Anchor: true})
	}
	return out
}

// layoutNodes places every node on its bucket's layer. Within a layer nodes
// are ordered by id.
func layoutNodes(nodes []*model.Node, cfg config.Topology) {
	layers := map[model.Bucket][]*model.Node{}
	for _, n := range nodes {
		layers[n.Bucket] = append(layers[n.Bucket], n)
	}
	for bucket, layer := range layers {
		sort.Slice(layer, func(i, j int) bool { return layer[i].ID < layer[j].ID })
		style := cfg.Bucket(bucket)
		xs := layerXs(len(layer), cfg.Width, cfg.Spacing, style.Align)
		for i, n := range layer {
			n.X = xs[i]
			n.Y = style.LayerY
		}
	}
}

// layerXs returns n x positions spaced by spacing and aligned within width.
// When n*spacing does not fit, positions are justified evenly across the
// width regardless of alignment.
func layerXs(n int, width, spacing float64, align string) []float64 {
	xs := make([]float64, n)
	total := float64(n) * spacing
	if total > width {
		for i := range xs {
			xs[i] = width * float64(i+1) / float64(n+1)
		}
		return xs
	}
	var start float64
	switch align {
	case config.AlignLeft:
		start = spacing / 2
	case config.AlignRight:
		start = width - total + spacing/2
	default:
		start = (width-total)/2 + spacing/2
	}
	for i := range xs {
		xs[i] = start + float64(i)*spacing
	}
	return xs
}
