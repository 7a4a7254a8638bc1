package layout

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the rasterization resolution for layout pages.
const DefaultDPI = 300

// RasterPages renders every page of the PDF at the given DPI.
func RasterPages(path string, dpi int) ([]image.Image, error) {
	const op = "RasterPages"

	doc, err := fitz.New(path)
	if err != nil {
		return nil, WrapLayoutError(op, ErrInvalidPDF, err.Error())
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, WrapLayoutError(op, ErrNoPages, "")
	}

	var pages []image.Image
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, float64(dpi))
		if err != nil {
			return nil, WrapLayoutError(op, err, "failed to render page")
		}
		pages = append(pages, img)
	}
	return pages, nil
}
