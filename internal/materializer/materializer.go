// Package materializer writes discovered images to disk and rasterizes
// vector-drawing clusters into PNGs, producing the image descriptors the
// orchestrator persists.
package materializer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gen2brain/go-fitz"

	"github.com/inklutec/accesspdf/internal/geom"
	"github.com/inklutec/accesspdf/internal/pdfreader"
	"github.com/inklutec/accesspdf/internal/store"
)

// MaxImageDim caps the render resolution of a vector cluster crop, matching
// the model client's own resize limit.
const MaxImageDim = 1024

// MinRasterDim is the minimum width/height a raster image must have to be
// materialized; smaller images are icons/bullets not worth describing.
const MinRasterDim = 20

// SyntheticXrefFloor is the first xref value handed to a vector cluster; it
// never refers to a real PDF object.
const SyntheticXrefFloor = 900000

// Materializer writes image files under OutDir and assigns synthetic xrefs
// for vector clusters from a monotonically increasing counter.
type Materializer struct {
	OutDir   string
	nextXref int64
}

// New returns a Materializer whose synthetic xref counter starts at
// SyntheticXrefFloor.
func New(outDir string) *Materializer {
	return &Materializer{OutDir: outDir, nextXref: SyntheticXrefFloor}
}

// MaterializeRaster writes a decoded raster image's bytes verbatim and
// returns its descriptor, or (nil, nil) if it is too small to be worth
// describing.
func (m *Materializer) MaterializeRaster(img pdfreader.RasterImage, page, idx int) (*store.ImageDescriptor, error) {
	if img.Width < MinRasterDim || img.Height < MinRasterDim {
		return nil, nil
	}
	name := fmt.Sprintf("p%d_img%d.%s", page, idx, img.Ext)
	path := filepath.Join(m.OutDir, name)
	if err := os.WriteFile(path, img.Bytes, 0o644); err != nil {
		return nil, fmt.Errorf("materializer: write raster %s: %w", name, err)
	}
	return &store.ImageDescriptor{
		PageNumber: page,
		ImageIndex: idx,
		ImagePath:  path,
		Ext:        img.Ext,
		Width:      img.Width,
		Height:     img.Height,
		Xref:       img.Xref,
	}, nil
}

// MaterializeVectorCluster rasterizes the page clipped to clusterRect at a
// resolution-aware scale, saves it as a PNG, and assigns the next synthetic
// xref.
func (m *Materializer) MaterializeVectorCluster(doc *fitz.Document, page int, pageRect, clusterRect geom.Rect, idx int) (*store.ImageDescriptor, error) {
	scale := renderScale(clusterRect.Width(), clusterRect.Height())

	pageImg, err := doc.ImageDPI(page-1, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("materializer: rasterize page %d: %w", page, err)
	}

	crop := cropToCluster(pageImg, pageRect, clusterRect, scale)

	name := fmt.Sprintf("p%d_vec%d.png", page, idx)
	path := filepath.Join(m.OutDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("materializer: create %s: %w", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, crop); err != nil {
		return nil, fmt.Errorf("materializer: encode %s: %w", name, err)
	}

	xref := int(atomic.AddInt64(&m.nextXref, 1)) - 1

	b := crop.Bounds()
	return &store.ImageDescriptor{
		PageNumber: page,
		ImageIndex: idx,
		ImagePath:  path,
		Ext:        "png",
		Width:      b.Dx(),
		Height:     b.Dy(),
		Xref:       xref,
	}, nil
}

// renderScale starts at 2.0, shrinks to fit MaxImageDim if needed, and never
// drops below 1.0.
func renderScale(width, height float64) float64 {
	scale := 2.0
	if scale*width > MaxImageDim || scale*height > MaxImageDim {
		byWidth := MaxImageDim / width
		byHeight := MaxImageDim / height
		scale = byWidth
		if byHeight < scale {
			scale = byHeight
		}
		if scale < 1.0 {
			scale = 1.0
		}
	}
	return scale
}

// cropToCluster maps clusterRect (in page points) to pixel coordinates in
// pageImg (rendered at scale relative to the page rect's origin) and crops.
func cropToCluster(pageImg image.Image, pageRect, clusterRect geom.Rect, scale float64) image.Image {
	x0 := int((clusterRect.X0 - pageRect.X0) * scale)
	y0 := int((pageRect.Y1 - clusterRect.Y1) * scale) // PDF y-up -> image y-down
	x1 := int((clusterRect.X1 - pageRect.X0) * scale)
	y1 := int((pageRect.Y1 - clusterRect.Y0) * scale)

	bounds := pageImg.Bounds()
	if x0 < bounds.Min.X {
		x0 = bounds.Min.X
	}
	if y0 < bounds.Min.Y {
		y0 = bounds.Min.Y
	}
	if x1 > bounds.Max.X {
		x1 = bounds.Max.X
	}
	if y1 > bounds.Max.Y {
		y1 = bounds.Max.Y
	}

	rect := image.Rect(x0, y0, x1, y1)
	if sub, ok := pageImg.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}

	dst := image.NewRGBA(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, y, pageImg.At(x, y))
		}
	}
	return dst
}
