// Package scraper turns the listing page into IPO schedule records.
package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crucial707/ipo-schedule/internal/models"
)

const (
	// DefaultTableMarker is the summary attribute of the subscription schedule table.
	DefaultTableMarker = "공모주 청약일정"

	// SourceDateLayout is how the page writes dates (YYYY.MM.DD). Single-digit
	// month and day are accepted as well.
	SourceDateLayout = "2006.1.2"

	rangeSeparator = "~"
)

// ErrStructureChanged means the schedule table was not found; the page layout probably changed.
var ErrStructureChanged = errors.New("schedule table not found: site structure may have changed")

// Extractor parses schedule tables identified by Marker.
type Extractor struct {
	Marker string
}

// NewExtractor returns an Extractor for marker (DefaultTableMarker when empty).
func NewExtractor(marker string) *Extractor {
	if marker == "" {
		marker = DefaultTableMarker
	}
	return &Extractor{Marker: marker}
}

// Extract parses html and returns the schedule rows that carry a valid subscription window.
func (e *Extractor) Extract(html string) ([]models.IPOSchedule, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument is Extract over an already parsed document.
// Rows without a parsable start~end range are skipped; an unparsable listing date only
// leaves ListingDate nil. Matching is lenient about whitespace: the table's summary is
// compared trimmed, and spaces around "~" are ignored, so "2024.03.04 ~ 2024.03.05" parses.
func (e *Extractor) ExtractDocument(doc *goquery.Document) ([]models.IPOSchedule, error) {
	table, ok := FindTableByMarker(doc, e.Marker)
	if !ok {
		return nil, ErrStructureChanged
	}

	schedules := []models.IPOSchedule{}
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		if s, ok := parseRow(RowCells(row)); ok {
			schedules = append(schedules, s)
		}
	})
	return schedules, nil
}

func parseRow(cells []*goquery.Selection) (models.IPOSchedule, bool) {
	if len(cells) < 2 {
		return models.IPOSchedule{}, false
	}
	company, _ := CellText(cells, 0)
	window, _ := CellText(cells, 1)

	start, end, ok := parseRange(window)
	if !ok {
		return models.IPOSchedule{}, false
	}

	s := models.IPOSchedule{
		CompanyName: company,
		StartDate:   start,
		EndDate:     end,
	}
	if listing, ok := CellText(cells, 2); ok && listing != "" {
		if d, err := models.ParseDate(SourceDateLayout, listing); err == nil {
			s.ListingDate = &d
		}
	}
	return s, true
}

// parseRange parses "YYYY.MM.DD~YYYY.MM.DD", trimming each side. Anything after a second "~" is ignored.
func parseRange(s string) (start, end models.Date, ok bool) {
	parts := strings.Split(s, rangeSeparator)
	if len(parts) < 2 {
		return models.Date{}, models.Date{}, false
	}
	start, err := models.ParseDate(SourceDateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return models.Date{}, models.Date{}, false
	}
	end, err = models.ParseDate(SourceDateLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return models.Date{}, models.Date{}, false
	}
	return start, end, true
}
