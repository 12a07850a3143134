package poi

import "time"

// SourceType tags every imported record with its origin dataset family.
const SourceType = "overture"

// Record is the flat destination schema for one place. Pointer and slice
// fields are nil when the source has no value for them, which is distinct
// from an empty value. JSON tags double as destination column names.
type Record struct {
	ID                  string    `json:"id"`
	Name                *string   `json:"name"`
	Confidence          float64   `json:"confidence"`
	PrimaryCategory     *string   `json:"primary_category"`
	AlternateCategories []string  `json:"alternate_categories"`
	Brand               *string   `json:"brand"`
	BrandWikidata       *string   `json:"brand_wikidata"`
	OperatingStatus     *string   `json:"operating_status"`
	Websites            []string  `json:"websites"`
	Socials             []string  `json:"socials"`
	Phones              []string  `json:"phones"`
	Emails              []string  `json:"emails"`
	Street              *string   `json:"street"`
	City                *string   `json:"city"`
	State               *string   `json:"state"`
	Postcode            *string   `json:"postcode"`
	Country             *string   `json:"country"`
	Lon                 float64   `json:"lon"`
	Lat                 float64   `json:"lat"`
	UpdatedAt           time.Time `json:"updated_at"`
	Source              string    `json:"source_type"`
	PrimarySource       *string   `json:"primary_source"`

	// Only selected by the export projection, not stored in the table.
	BasicCategory *string `json:"basic_category,omitempty"`
}
