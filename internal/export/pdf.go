package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/kt-primus/einsatzplanung/internal/planning"
)

const pageMargin = 10.0 // mm

// PDFRenderer rasterizes the grid and places the image on one landscape A4
// page, scaled to fit while keeping its aspect ratio.
type PDFRenderer struct {
	// Scale is the upscaling factor applied to the raster before embedding.
	Scale int
}

var _ Renderer = PDFRenderer{}

func (PDFRenderer) Format() string { return "pdf" }

func (r PDFRenderer) Render(ctx context.Context, v *planning.View) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scale := r.Scale
	if scale <= 0 {
		scale = 2
	}

	grid, err := Rasterize(v)
	if err != nil {
		return nil, fmt.Errorf("rasterize grid: %w", err)
	}
	img := upscale(grid, scale)
	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return nil, fmt.Errorf("encode grid image: %w", err)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Dienstplan "+v.Title, true)
	pdf.SetCreator("PRIMUS Einsatzplanung", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("grid", opts, &raster)

	pageW, pageH := pdf.GetPageSize()
	w, h := FitRect(float64(img.Bounds().Dx()), float64(img.Bounds().Dy()), pageW-2*pageMargin, pageH-2*pageMargin)
	pdf.ImageOptions("grid", pageMargin, pageMargin, w, h, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &Artifact{
		FileName:    FileName(v.Year, v.Month, "pdf"),
		ContentType: "application/pdf",
		Data:        out.Bytes(),
	}, nil
}

// FitRect scales (w, h) to the largest size inside (maxW, maxH) with the
// same aspect ratio.
func FitRect(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	ratio := math.Min(maxW/w, maxH/h)
	return w * ratio, h * ratio
}
