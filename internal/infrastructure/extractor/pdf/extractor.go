// Package pdf extracts per-page text from source PDF documents for the
// offline indexer. The serving path never touches raw documents.
package pdf

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Page is the raw text of one document page, 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages reads every page of the PDF at path. Pages that fail text
// extraction are skipped; corrupt embedded fonts are common in scanned
// regulatory documents and one bad page should not discard the rest.
func ExtractPages(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]Page, 0, total)
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, Page{Number: num, Text: text})
	}
	return pages, nil
}
