package probe

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF header decoding
	_ "image/jpeg" // JPEG header decoding
	_ "image/png"  // PNG header decoding
	"math"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // BMP header decoding
	_ "golang.org/x/image/tiff" // TIFF header decoding
	_ "golang.org/x/image/webp" // WebP header decoding

	"github.com/KexinAnswer/gitbook/internal/images"
)

const svgMIME = "image/svg+xml"

// Decode reads the natural size of an image from its leading bytes.
// Raster formats report pixel dimensions; SVG reports its width/height
// attributes, falling back to the viewBox.
func Decode(data []byte) (*images.Size, error) {
	mt := mimetype.Detect(data)

	if mt.Is(svgMIME) || (textual(mt) && bytes.Contains(data, []byte("<svg"))) {
		return decodeSVG(data)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %s reports %dx%d", ErrUnsupportedFormat, format, cfg.Width, cfg.Height)
	}

	size := images.Dimensions(cfg.Width, cfg.Height)
	return &size, nil
}

// textual reports whether mt is a text or XML type. Binary formats may
// carry "<svg" in embedded metadata and never take the SVG path.
func textual(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("text/xml") || m.Is("application/xml") {
			return true
		}
	}
	return false
}

func decodeSVG(data []byte) (*images.Size, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse svg: %v", ErrUnsupportedFormat, err)
	}

	root := htmlquery.FindOne(doc, "//svg")
	if root == nil {
		return nil, fmt.Errorf("%w: no svg root element", ErrUnsupportedFormat)
	}

	width, wok := parseLength(htmlquery.SelectAttr(root, "width"))
	height, hok := parseLength(htmlquery.SelectAttr(root, "height"))
	if wok && hok {
		size := images.Dimensions(int(math.Round(width)), int(math.Round(height)))
		if size.Validate() == nil {
			return &size, nil
		}
	}

	viewBox := htmlquery.SelectAttr(root, "viewBox")
	if viewBox == "" {
		viewBox = htmlquery.SelectAttr(root, "viewbox")
	}
	if vw, vh, ok := parseViewBox(viewBox); ok {
		if vw == math.Trunc(vw) && vh == math.Trunc(vh) {
			size := images.Dimensions(int(vw), int(vh))
			return &size, nil
		}
		size := images.Ratio(vw / vh)
		return &size, nil
	}

	return nil, fmt.Errorf("%w: svg without usable dimensions", ErrUnsupportedFormat)
}

// parseLength accepts unitless and px lengths.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseViewBox(s string) (float64, float64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(fields) != 4 {
		return 0, 0, false
	}
	w, err1 := strconv.ParseFloat(fields[2], 64)
	h, err2 := strconv.ParseFloat(fields[3], 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
