package export

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/kt-primus/einsatzplanung/internal/planning"
)

const (
	nameWidth   = 150
	cellWidth   = 30
	rowHeight   = 20
	titleHeight = 28
	legendRow   = 18
	pad         = 6
)

var (
	black    = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	gridLine = color.RGBA{0xcb, 0xd5, 0xe1, 0xff}
	headerBg = color.RGBA{0x09, 0x3d, 0x9e, 0xff}
	white    = color.RGBA{0xff, 0xff, 0xff, 0xff}
	footerBg = color.RGBA{0xf1, 0xf5, 0xf9, 0xff}
)

// Go Regular covers Latin-1 and the punctuation the grid uses (umlauts,
// the "·" placeholder, "—" and "…").
var regular = func() *sfnt.Font {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic("export: parse embedded font: " + err.Error())
	}
	return f
}()

const textSize = 11

// painter draws onto one image. Faces hold scratch buffers, so every
// rasterization gets its own.
type painter struct {
	img    *image.RGBA
	face   font.Face
	ascent int
}

func newPainter(img *image.RGBA) (*painter, error) {
	face, err := opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    textSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	return &painter{img: img, face: face, ascent: face.Metrics().Ascent.Ceil()}, nil
}

// Rasterize draws the grid the way the planning page shows it: title, week
// numbers, day and weekday headers, one row per employee, the headcount
// footer and a legend of the shift types.
func Rasterize(v *planning.View) (*image.RGBA, error) {
	cols := len(v.Days)
	headerRows := 3 // week, day, weekday
	gridTop := titleHeight
	gridRows := headerRows + len(v.Rows) + 1
	legendTop := gridTop + gridRows*rowHeight + pad
	width := nameWidth + cols*cellWidth + 1
	height := legendTop + (len(v.ShiftTypes)+1)*legendRow + pad

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	p, err := newPainter(img)
	if err != nil {
		return nil, err
	}
	defer p.face.Close()

	p.fill(img.Bounds(), white)
	p.text(pad, pad+p.ascent+4, v.Title, black)

	y := gridTop
	p.fill(image.Rect(0, y, width, y+headerRows*rowHeight), headerBg)
	p.text(pad, y+rowHeight-6, "KW", white)
	p.text(pad, y+2*rowHeight-6, "Tag", white)
	for i, d := range v.Days {
		x := nameWidth + i*cellWidth
		if d.ShowWeek {
			p.centered(x, y, cellWidth, strconv.Itoa(d.ISOWeek), white)
		}
		p.centered(x, y+rowHeight, cellWidth, strconv.Itoa(d.Day), white)
		p.centered(x, y+2*rowHeight, cellWidth, d.Weekday, white)
	}
	y += headerRows * rowHeight

	for _, row := range v.Rows {
		p.text(pad, y+rowHeight-6, p.clip(row.Employee.DisplayName, nameWidth-2*pad), black)
		for i, c := range row.Cells {
			x := nameWidth + i*cellWidth
			p.fill(image.Rect(x, y, x+cellWidth, y+rowHeight), parseColor(c.Color))
			p.centered(x, y, cellWidth, c.Code, black)
		}
		y += rowHeight
	}

	p.fill(image.Rect(0, y, width, y+rowHeight), footerBg)
	p.text(pad, y+rowHeight-6, "Besetzung", black)
	for i, n := range v.Footer {
		p.centered(nameWidth+i*cellWidth, y, cellWidth, strconv.Itoa(n), black)
	}
	y += rowHeight

	for r := gridTop; r <= y; r += rowHeight {
		p.fill(image.Rect(0, r, width, r+1), gridLine)
	}
	for c := 0; c <= cols; c++ {
		x := nameWidth + c*cellWidth
		p.fill(image.Rect(x, gridTop, x+1, y), gridLine)
	}

	ly := legendTop
	for _, st := range v.ShiftTypes {
		p.fill(image.Rect(pad, ly+3, pad+24, ly+legendRow-3), parseColor(st.Color))
		label := st.Code + "  " + st.Name
		if st.StartTime != "" && st.EndTime != "" {
			label += " (" + st.StartTime + "-" + st.EndTime + ")"
		}
		p.text(pad+32, ly+legendRow-5, label, black)
		ly += legendRow
	}
	return img, nil
}

// upscale enlarges img by factor with nearest-neighbour sampling so the
// grid lines stay sharp in the document.
func upscale(img *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func (p *painter) fill(r image.Rectangle, c color.Color) {
	xdraw.Draw(p.img, r, image.NewUniform(c), image.Point{}, xdraw.Src)
}

func (p *painter) text(x, baseline int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(c),
		Face: p.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func (p *painter) centered(x, top, w int, s string, c color.Color) {
	tw := font.MeasureString(p.face, s).Ceil()
	p.text(x+(w-tw)/2, top+rowHeight-6, s, c)
}

func (p *painter) clip(s string, maxWidth int) string {
	if font.MeasureString(p.face, s).Ceil() <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && font.MeasureString(p.face, string(r)+"…").Ceil() > maxWidth {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// parseColor accepts #rgb and #rrggbb; anything else is white.
func parseColor(s string) color.RGBA {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return white
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return white
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}
