package pdfreader

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strconv"

	"github.com/inklutec/accesspdf/internal/pdfio"
)

var (
	subtypeImageRe = regexp.MustCompile(`/Subtype\s*/Image`)
	filterRe       = regexp.MustCompile(`/Filter\s*(?:/([A-Za-z0-9]+)|\[\s*/([A-Za-z0-9]+))`)
	widthRe        = regexp.MustCompile(`/Width\s+(\d+)`)
	heightRe       = regexp.MustCompile(`/Height\s+(\d+)`)
	bpcRe          = regexp.MustCompile(`/BitsPerComponent\s+(\d+)`)
	colorSpaceRe   = regexp.MustCompile(`/ColorSpace\s*/(DeviceRGB|DeviceGray|DeviceCMYK)`)
)

// decodeImageXObject turns an /Image XObject dictionary+stream into
// ready-to-save bytes and a declared extension. Already-encoded formats
// (DCTDecode/JPXDecode) pass through verbatim; raw sample data is decoded
// into an image.Image and re-encoded as PNG. Returns ok=false when the
// XObject isn't actually an image, or uses an encoding this reader doesn't
// understand (CCITT fax, indexed palettes, 16-bit samples) — such images
// are skipped, never fatal, per the reader's "log and skip" contract.
func decodeImageXObject(objBody []byte) (data []byte, ext string, width, height int, ok bool) {
	if !subtypeImageRe.Match(objBody) {
		return nil, "", 0, 0, false
	}
	width = atoiMatch(widthRe, objBody)
	height = atoiMatch(heightRe, objBody)
	if width <= 0 || height <= 0 {
		return nil, "", 0, 0, false
	}

	raw, hasStream := pdfio.ExtractStreamBody(objBody)
	if !hasStream {
		return nil, "", 0, 0, false
	}

	filter := ""
	if m := filterRe.FindSubmatch(objBody); m != nil {
		if len(m[1]) > 0 {
			filter = string(m[1])
		} else {
			filter = string(m[2])
		}
	}

	switch filter {
	case "DCTDecode":
		return raw, "jpeg", width, height, true
	case "JPXDecode":
		return raw, "jp2", width, height, true
	case "FlateDecode", "":
		dec := pdfio.Inflate(raw)
		png, ok := rawSamplesToPNG(dec, objBody, width, height)
		if !ok {
			return nil, "", 0, 0, false
		}
		return png, "png", width, height, true
	default:
		return nil, "", 0, 0, false
	}
}

func atoiMatch(re *regexp.Regexp, body []byte) int {
	m := re.FindSubmatch(body)
	if m == nil {
		return 0
	}
	v, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0
	}
	return v
}

// rawSamplesToPNG supports the common 8-bit DeviceRGB/DeviceGray case; any
// other bit depth or color space is reported as unsupported (ok=false).
func rawSamplesToPNG(samples, objBody []byte, width, height int) ([]byte, bool) {
	bpc := atoiMatch(bpcRe, objBody)
	if bpc == 0 {
		bpc = 8
	}
	if bpc != 8 {
		return nil, false
	}
	cs := "DeviceRGB"
	if m := colorSpaceRe.FindSubmatch(objBody); m != nil {
		cs = string(m[1])
	}

	var img image.Image
	switch cs {
	case "DeviceGray":
		g := image.NewGray(image.Rect(0, 0, width, height))
		need := width * height
		if len(samples) < need {
			return nil, false
		}
		copy(g.Pix, samples[:need])
		img = g
	case "DeviceRGB":
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		need := width * height * 3
		if len(samples) < need {
			return nil, false
		}
		for p := 0; p < width*height; p++ {
			o := p * 3
			rgba.Set(p%width, p/width, color.RGBA{samples[o], samples[o+1], samples[o+2], 0xFF})
		}
		img = rgba
	default:
		return nil, false
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
