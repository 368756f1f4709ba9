package vectorcluster

import (
	"testing"

	"github.com/inklutec/accesspdf/internal/geom"
)

var page = geom.NewRect(0, 0, 600, 800)

func TestDetectAcceptsDenseCluster(t *testing.T) {
	items := []Item{
		{Rect: geom.NewRect(100, 100, 150, 150), ItemCount: 1},
		{Rect: geom.NewRect(160, 100, 210, 160), ItemCount: 1},
		{Rect: geom.NewRect(220, 100, 270, 170), ItemCount: 1},
		{Rect: geom.NewRect(280, 100, 330, 140), ItemCount: 1},
		{Rect: geom.NewRect(340, 100, 390, 190), ItemCount: 1},
	}
	clusters := Detect(page, items)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	c := clusters[0]
	if c.X0 < page.X0 || c.Y0 < page.Y0 || c.X1 > page.X1 || c.Y1 > page.Y1 {
		t.Errorf("expected cluster clipped within page bounds, got %v", c)
	}
	unpadded := geom.NewRect(100, 100, 390, 190)
	want := unpadded.Outset(Pad).ClipTo(page)
	if c != want {
		t.Errorf("expected padded+clipped box %v, got %v", want, c)
	}
}

func TestDetectRejectsSparseRules(t *testing.T) {
	items := []Item{
		{Rect: geom.NewRect(10, 10, 590, 12), ItemCount: 1}, // horizontal ruling, full width
		{Rect: geom.NewRect(10, 10, 12, 790), ItemCount: 1}, // vertical ruling, full height
	}
	clusters := Detect(page, items)
	if len(clusters) != 0 {
		t.Fatalf("expected sliver rules to be filtered, got %d clusters", len(clusters))
	}
}

func TestDetectRejectsLowItemCount(t *testing.T) {
	items := []Item{
		{Rect: geom.NewRect(100, 100, 160, 160), ItemCount: 1},
		{Rect: geom.NewRect(150, 150, 210, 210), ItemCount: 1},
	}
	clusters := Detect(page, items)
	if len(clusters) != 0 {
		t.Fatalf("expected cluster below MinItemCountSum to be rejected, got %d", len(clusters))
	}
}

func TestDetectRejectsSingleItem(t *testing.T) {
	items := []Item{
		{Rect: geom.NewRect(100, 100, 300, 300), ItemCount: 10},
	}
	clusters := Detect(page, items)
	if len(clusters) != 0 {
		t.Fatalf("expected single-item cluster to be rejected, got %d", len(clusters))
	}
}

func TestOverlapsRasterDropsOverlay(t *testing.T) {
	cluster := geom.NewRect(95, 95, 405, 305)
	raster := geom.NewRect(100, 100, 400, 300)
	if !OverlapsRaster(cluster, []geom.Rect{raster}) {
		t.Errorf("expected cluster overlapping raster by >50%% to be flagged")
	}
}

func TestOverlapsRasterKeepsDistinctRegion(t *testing.T) {
	cluster := geom.NewRect(500, 500, 560, 560)
	raster := geom.NewRect(0, 0, 100, 100)
	if OverlapsRaster(cluster, []geom.Rect{raster}) {
		t.Errorf("expected non-overlapping cluster to be kept")
	}
}
