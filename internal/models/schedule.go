package models

import "time"

// IPOSchedule is one subscription window scraped from the listing page.
// StartDate and EndDate are always set; ListingDate is nil until announced.
type IPOSchedule struct {
	ID          int       `json:"id" csv:"-"`
	CompanyName string    `json:"company_name" csv:"company_name"`
	StartDate   Date      `json:"start_date" csv:"start_date"`
	EndDate     Date      `json:"end_date" csv:"end_date"`
	ListingDate *Date     `json:"listing_date" csv:"listing_date"`
	ScrapedAt   time.Time `json:"scraped_at" csv:"-"`
}
