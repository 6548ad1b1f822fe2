package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pageza/foodgram/backend/internal/types"
)

// RowsPerPage is how many items fit below the header on one A4 page.
const RowsPerPage = 30

const (
	pdfMargin    = 15.0
	pdfRowHeight = 7.0
	colName      = 15.0
	colUnit      = 120.0
	colAmount    = 160.0
	amountWidth  = 35.0
	fontFamily   = "body"
)

var titleCaser = cases.Title(language.English)

// PDF renders the list as an A4 document, repeating the column header on every page.
func (r *Renderer) PDF(w io.Writer, owner string, items []types.ShoppingItem) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetCreator("foodgram", true)

	family, tr := "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if r.FontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", r.FontPath)
		if pdf.Err() {
			return fmt.Errorf("load font %s: %w", r.FontPath, pdf.Error())
		}
		family, tr = fontFamily, func(s string) string { return s }
	}

	title := titleCaser.String("shopping list")
	if owner != "" {
		title = fmt.Sprintf("%s: %s", title, owner)
	}
	pdf.SetTitle(title, true)

	newPage := func() {
		pdf.AddPage()
		pdf.SetFont(family, "", 16)
		pdf.SetXY(colName, pdfMargin)
		pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont(family, "", 12)
		y := pdf.GetY()
		cells(pdf, y, tr(titleCaser.String(Header[0])), tr(titleCaser.String(Header[1])), tr(titleCaser.String(Header[2])))
		pdf.Line(colName, y+pdfRowHeight, colAmount+amountWidth, y+pdfRowHeight)
		pdf.SetY(y + pdfRowHeight + 1)
		pdf.SetFont(family, "", 11)
	}

	newPage()
	for i, item := range items {
		if i > 0 && i%RowsPerPage == 0 {
			newPage()
		}
		cells(pdf, pdf.GetY(), tr(item.Name), tr(item.Unit), item.Amount.StringFixed(2))
		pdf.SetY(pdf.GetY() + pdfRowHeight)
	}

	if pdf.Err() {
		return fmt.Errorf("render pdf: %w", pdf.Error())
	}
	return pdf.Output(w)
}

func cells(pdf *fpdf.Fpdf, y float64, name, unit, amount string) {
	pdf.SetXY(colName, y)
	pdf.CellFormat(colUnit-colName-2, pdfRowHeight, name, "", 0, "L", false, 0, "")
	pdf.SetXY(colUnit, y)
	pdf.CellFormat(colAmount-colUnit-2, pdfRowHeight, unit, "", 0, "L", false, 0, "")
	pdf.SetXY(colAmount, y)
	pdf.CellFormat(amountWidth, pdfRowHeight, amount, "", 0, "R", false, 0, "")
}
