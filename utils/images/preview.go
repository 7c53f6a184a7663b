// Package images renders SVG documents into raster previews.
package images

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSVGSize is used when document viewBox has no size.
const defaultSVGSize = 1024

// maxRasterDim limits pixel dimension of intermediate raster, so documents
// with enormous viewBox could not exhaust memory.
var maxRasterDim = 8192

// Rasterize renders SVG at its intrinsic viewBox size onto white background.
// Elements rasterizer does not support (text among them) are ignored.
func Rasterize(svgData []byte) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}

	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 {
		w = defaultSVGSize
	}
	if h <= 0 {
		h = defaultSVGSize
	}
	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// Preview rasterizes SVG and fits the result into width x height box keeping
// aspect ratio. Images already fitting the box are not scaled. Result is PNG
// encoded.
func Preview(svgData []byte, width, height int) ([]byte, error) {
	img, err := Rasterize(svgData)
	if err != nil {
		return nil, err
	}

	var out image.Image = img
	if b := img.Bounds(); b.Dx() > width || b.Dy() > height {
		out = imaging.Fit(img, width, height, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, out, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
