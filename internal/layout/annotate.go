package layout

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Annotation canvas dimensions. Pages are resized to this fixed size so
// region boxes from the layout model land in a common coordinate space.
const (
	AnnotationWidth  = 762
	AnnotationHeight = 1000
)

// labelPalette maps entity labels to stable drawing colors. Labels not
// listed fall back to gray.
var labelPalette = map[string]color.RGBA{
	"supplier_name":    {R: 220, G: 60, B: 60, A: 255},
	"supplier_tax_id":  {R: 220, G: 120, B: 60, A: 255},
	"invoice_id":       {R: 60, G: 120, B: 220, A: 255},
	"invoice_date":     {R: 60, G: 180, B: 220, A: 255},
	"line_item":        {R: 60, G: 180, B: 90, A: 255},
	"net_amount":       {R: 170, G: 90, B: 220, A: 255},
	"total_tax_amount": {R: 220, G: 170, B: 60, A: 255},
	"total_amount":     {R: 170, G: 60, B: 170, A: 255},
}

var defaultLabelColor = color.RGBA{R: 130, G: 130, B: 130, A: 255}

// AnnotatePage resizes the page image to the annotation canvas and draws
// the labeled regions belonging to the given page number.
func AnnotatePage(img image.Image, pageNum int, regions []Region) image.Image {
	resized := imaging.Resize(img, AnnotationWidth, AnnotationHeight, imaging.Lanczos)

	dc := gg.NewContextForImage(resized)
	dc.SetLineWidth(2)

	for _, region := range regions {
		if region.Page != pageNum || region.Label == "" {
			continue
		}

		c, ok := labelPalette[region.Label]
		if !ok {
			c = defaultLabelColor
		}

		x := float64(region.Box[0])
		y := float64(region.Box[1])
		w := float64(region.Box[2])
		h := float64(region.Box[3])

		dc.SetColor(c)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()

		// Label text sits just above the box, inside the canvas.
		ty := y - 4
		if ty < 10 {
			ty = y + h + 12
		}
		dc.DrawString(region.Label, x, ty)
	}

	return dc.Image()
}
