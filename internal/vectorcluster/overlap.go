package vectorcluster

import "github.com/inklutec/accesspdf/internal/geom"

// OverlapsRaster reports whether cluster overlaps any raster rectangle by
// more than 50% of the cluster's own area — the threshold at which the
// cluster is presumed to be a decorative frame or overlay around an image
// that's already been captured as a raster XObject.
func OverlapsRaster(cluster geom.Rect, rasterRects []geom.Rect) bool {
	area := cluster.Area()
	if area <= 0 {
		return false
	}
	for _, r := range rasterRects {
		if cluster.IntersectionArea(r)/area > 0.5 {
			return true
		}
	}
	return false
}
