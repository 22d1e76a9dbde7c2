package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FindTableByMarker returns the first <table> whose summary attribute equals marker.
// Surrounding whitespace in the attribute is ignored.
func FindTableByMarker(doc *goquery.Document, marker string) (*goquery.Selection, bool) {
	if doc == nil {
		return nil, false
	}
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if summary, ok := t.Attr("summary"); ok && strings.TrimSpace(summary) == marker {
			found = t
			return false
		}
		return true
	})
	return found, found != nil
}

// RowCells returns the <td> cells of a table row in document order.
func RowCells(row *goquery.Selection) []*goquery.Selection {
	if row == nil {
		return nil
	}
	var cells []*goquery.Selection
	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, td)
	})
	return cells
}

// CellText returns the trimmed text of cells[i]; ok is false when the cell does not exist.
func CellText(cells []*goquery.Selection, i int) (string, bool) {
	if i < 0 || i >= len(cells) || cells[i] == nil {
		return "", false
	}
	return strings.TrimSpace(cells[i].Text()), true
}
