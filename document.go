package routinepdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// document abstracts PDF assembly so exports can be tested without gofpdf
// output parsing.
type document interface {
	// AddImagePage appends a page holding one JPEG at (x, y) with size w x h mm.
	AddImagePage(name string, jpg []byte, x, y, w, h float64) error
	PageCount() int
	Bytes() ([]byte, error)
}

// Compile-time interface check.
var _ document = (*pdfDocument)(nil)

// gofpdf page size names.
var gofpdfSizes = map[string]string{
	PageSizeA4:     "A4",
	PageSizeA5:     "A5",
	PageSizeLetter: "Letter",
}

// pdfDocument implements document with gofpdf.
type pdfDocument struct {
	pdf *gofpdf.Fpdf
}

func newPDFDocument(g pageGeometry, title string) document {
	orientation := "P"
	if g.Landscape {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", gofpdfSizes[g.Size], "")
	pdf.SetMargins(g.Margin, g.Margin, g.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("routinepdf", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	return &pdfDocument{pdf: pdf}
}

func (d *pdfDocument) AddImagePage(name string, jpg []byte, x, y, w, h float64) error {
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	d.pdf.AddPage()
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(jpg))
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPDFAssembly, err)
	}
	return nil
}

func (d *pdfDocument) PageCount() int {
	return d.pdf.PageCount()
}

func (d *pdfDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFAssembly, err)
	}
	return buf.Bytes(), nil
}
