package export

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
)

// Document metadata written into every pdf.
const (
	DocumentSubject = "Review Export"
	DocumentCreator = "Reviews-Maker Orchard Studio"
)

// flatten composites img over white.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

func encodePNG(w io.Writer, img image.Image, transparent bool) error {
	if !transparent {
		img = flatten(img)
	}
	return png.Encode(w, img)
}

func encodeJPEG(w io.Writer, img image.Image, quality float64) error {
	q := int(math.Round(min(max(quality, MinQuality), MaxQuality) * 100))
	return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: q})
}

// DocumentMeta is the pdf info dictionary.
type DocumentMeta struct {
	Title   string
	Author  string
	Created time.Time
}

// FitPage scales an image of imgW x imgH pixels to a page of pageW x pageH,
// leaving margin in total on the constrained axis, and centers it.
func FitPage(imgW, imgH, pageW, pageH, margin float64) (x, y, w, h float64) {
	imgRatio := imgW / imgH
	if imgRatio > pageW/pageH {
		w = pageW - margin
		h = w / imgRatio
	} else {
		h = pageH - margin
		w = h * imgRatio
	}
	return (pageW - w) / 2, (pageH - h) / 2, w, h
}

func encodePDF(w io.Writer, img image.Image, o Options, meta DocumentMeta) error {
	var raster bytes.Buffer
	if err := png.Encode(&raster, flatten(img)); err != nil {
		return err
	}

	orientation := "P"
	if o.Orientation == "landscape" {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", pageSizes[o.PageSize], "")
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(DocumentSubject, true)
	pdf.SetCreator(DocumentCreator, true)
	if !meta.Created.IsZero() {
		pdf.SetCreationDate(meta.Created)
	}
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("surface", opts, &raster)
	pageW, pageH := pdf.GetPageSize()
	b := img.Bounds()
	x, y, iw, ih := FitPage(float64(b.Dx()), float64(b.Dy()), pageW, pageH, PageMarginMM)
	pdf.ImageOptions("surface", x, y, iw, ih, false, opts, 0, "")

	return pdf.Output(w)
}
