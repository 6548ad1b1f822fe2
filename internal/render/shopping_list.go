// Package render turns an aggregated shopping list into a downloadable document.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pageza/foodgram/backend/internal/types"
)

// Format is a shopping list file type
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// Header names the shopping list columns in order.
var Header = []string{"name", "unit", "amount"}

// Negotiate picks the format from the ?format= query value, then the Accept header.
// Anything unrecognised falls back to plain text.
func Negotiate(query, accept string) Format {
	switch strings.ToLower(strings.TrimSpace(query)) {
	case string(FormatPDF):
		return FormatPDF
	case string(FormatText), "text":
		return FormatText
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(part, ";")
		if strings.EqualFold(strings.TrimSpace(mediaType), "application/pdf") {
			return FormatPDF
		}
	}
	return FormatText
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

func (f Format) Filename() string {
	return "shopping_list." + string(f)
}

// Renderer writes shopping lists. FontPath, when set, is a TTF used for the PDF body.
type Renderer struct {
	FontPath string
}

func (r *Renderer) Render(w io.Writer, format Format, owner string, items []types.ShoppingItem) error {
	if format == FormatPDF {
		return r.PDF(w, owner, items)
	}
	return Text(w, items)
}

// Text writes the header line followed by one space-separated line per item.
func Text(w io.Writer, items []types.ShoppingItem) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, strings.Join(Header, " "))
	for _, item := range items {
		fmt.Fprintf(bw, "%s %s %s\n", item.Name, item.Unit, item.Amount.StringFixed(2))
	}
	return bw.Flush()
}
