package main

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/labc/sink"
)

const (
	rowHeight  = 40
	leftMargin = 140
	pxPerUs    = 4.0
	topMargin  = 20
)

// renderTimeline draws one PNG row per output, high samples filled
// solid and low samples as a one-pixel baseline, labelled with the
// output's name.
func renderTimeline(p *sink.Payload, w io.Writer) error {
	outputs := append([]sink.OutputSamples(nil), p.Outputs...)
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Name < outputs[j].Name })

	width := leftMargin + 800
	height := topMargin + rowHeight*len(outputs) + topMargin
	if height < topMargin*2+rowHeight {
		height = topMargin*2 + rowHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	for i, o := range outputs {
		y := topMargin + i*rowHeight
		drawLabel(img, 4, y+rowHeight/2, o.Name)
		drawRow(img, y, o)
	}

	return png.Encode(w, img)
}

func drawRow(img *image.RGBA, y int, o sink.OutputSamples) {
	n := len(o.Float64)
	if o.Digital {
		n = len(o.Uint32)
	}
	if n == 0 {
		return
	}
	barTop := y + 6
	barBottom := y + rowHeight - 6

	high := func(i int) bool {
		if o.Digital {
			return o.Uint32[i] != 0
		}
		return o.Float64[i] != 0
	}

	width := img.Bounds().Dx()
	for px := leftMargin; px < width; px++ {
		sampleIdx := int(float64(px-leftMargin) / pxPerUs)
		if sampleIdx >= n {
			break
		}
		if high(sampleIdx) {
			for yy := barTop; yy < barBottom; yy++ {
				img.Set(px, yy, color.RGBA{R: 0x20, G: 0x80, B: 0xc0, A: 0xff})
			}
		} else {
			img.Set(px, barBottom, color.Black)
		}
	}
}

func drawLabel(img *image.RGBA, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
