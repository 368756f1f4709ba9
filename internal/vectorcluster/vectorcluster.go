// Package vectorcluster implements the Vector Cluster Detector: it groups
// nearby vector-draw rectangles into candidate chart/diagram regions and
// filters out rulings, borders, and other decorative noise.
package vectorcluster

import "github.com/inklutec/accesspdf/internal/geom"

// Item is one vector-draw path as seen by the PDF reader.
type Item struct {
	Rect      geom.Rect
	ItemCount int
}

const (
	// Gap is the page-unit expansion used to absorb nearby items into a
	// growing cluster during single-link agglomeration.
	Gap = 50.0
	// MinSize is the minimum accepted cluster width/height, before padding.
	MinSize = 50.0
	// Pad outsets an accepted cluster to capture titles, axes, and legends.
	Pad = 60.0
	// MinItemCountSum and MinItems are the acceptance thresholds that
	// separate a real chart's many small segments from a handful of
	// decorative rules or borders.
	MinItemCountSum = 5
	MinItems        = 2
)

// Detect runs pre-filtering, single-link agglomeration, and acceptance
// thresholds over items on one page, returning padded cluster rectangles
// clipped to the page, in seed-loop order.
func Detect(page geom.Rect, items []Item) []geom.Rect {
	filtered := preFilter(page, items)
	if len(filtered) == 0 {
		return nil
	}

	used := make([]bool, len(filtered))
	var clusters []geom.Rect

	for i := range filtered {
		if used[i] {
			continue
		}
		members := []int{i}
		used[i] = true
		bbox := filtered[i].Rect

		for {
			expanded := bbox.Outset(Gap)
			absorbedAny := false
			for j := range filtered {
				if used[j] {
					continue
				}
				if expanded.Intersects(filtered[j].Rect) {
					used[j] = true
					members = append(members, j)
					bbox = bbox.Union(filtered[j].Rect)
					absorbedAny = true
				}
			}
			if !absorbedAny {
				break
			}
		}

		if accepted, box := evaluate(filtered, members); accepted {
			padded := box.Outset(Pad).ClipTo(page)
			clusters = append(clusters, padded)
		}
	}

	return clusters
}

// preFilter drops empty/infinite rectangles and page-spanning rule lines
// before clustering ever sees them.
func preFilter(page geom.Rect, items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		r := it.Rect
		if r.Empty() || r.Infinite() {
			continue
		}
		horizontalSliver := r.Height() < 5 && r.Width() > 0.4*page.Width()
		verticalSliver := r.Width() < 5 && r.Height() > 0.4*page.Height()
		if horizontalSliver || verticalSliver {
			continue
		}
		out = append(out, it)
	}
	return out
}

// evaluate applies the cluster-acceptance thresholds: at least two items, a
// combined item_count of at least MinItemCountSum, and a bounding box no
// smaller than MinSize in either dimension.
func evaluate(items []Item, members []int) (bool, geom.Rect) {
	if len(members) < MinItems {
		return false, geom.Rect{}
	}
	sum := 0
	box := items[members[0]].Rect
	for _, idx := range members {
		sum += items[idx].ItemCount
		box = box.Union(items[idx].Rect)
	}
	if sum < MinItemCountSum {
		return false, geom.Rect{}
	}
	if box.Width() < MinSize || box.Height() < MinSize {
		return false, geom.Rect{}
	}
	return true, box
}
