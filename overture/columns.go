package overture

// Kind tells the normalizer how to coerce a raw column value.
type Kind int

const (
	KindText Kind = iota
	KindFloat
	KindTextList
)

// Column is one entry of the projection contract shared by the query
// builder and the normalizer. The builder emits Expr in declaration order
// and the normalizer pairs row values back by the same order, so the two
// sides can never drift apart.
type Column struct {
	Name string
	Expr string
	Kind Kind
}

// ImportColumns is the projection used by the import pipeline.
var ImportColumns = []Column{
	{Name: "id", Expr: "id", Kind: KindText},
	{Name: "name", Expr: "names.primary AS name", Kind: KindText},
	{Name: "confidence", Expr: "confidence", Kind: KindFloat},
	{Name: "primary_category", Expr: "categories.primary AS primary_category", Kind: KindText},
	{Name: "alternate_categories", Expr: "categories.alternate AS alternate_categories", Kind: KindTextList},
	{Name: "brand", Expr: "brand.names.primary AS brand", Kind: KindText},
	{Name: "brand_wikidata", Expr: "brand.wikidata AS brand_wikidata", Kind: KindText},
	{Name: "operating_status", Expr: "operating_status", Kind: KindText},
	{Name: "websites", Expr: "websites", Kind: KindTextList},
	{Name: "socials", Expr: "socials", Kind: KindTextList},
	{Name: "phones", Expr: "phones", Kind: KindTextList},
	{Name: "emails", Expr: "emails", Kind: KindTextList},
	{Name: "street", Expr: "addresses[1].freeform AS street", Kind: KindText},
	{Name: "city", Expr: "addresses[1].locality AS city", Kind: KindText},
	{Name: "state", Expr: "addresses[1].region AS state", Kind: KindText},
	{Name: "postcode", Expr: "addresses[1].postcode AS postcode", Kind: KindText},
	{Name: "country", Expr: "addresses[1].country AS country", Kind: KindText},
	{Name: "lon", Expr: "ST_X(geometry) AS lon", Kind: KindFloat},
	{Name: "lat", Expr: "ST_Y(geometry) AS lat", Kind: KindFloat},
	{Name: "primary_source", Expr: "sources[1].dataset AS primary_source", Kind: KindText},
}

// ExportColumns is the projection used by the GeoJSON export. It carries
// basic_category and keeps brand_wikidata but has no source attribution.
var ExportColumns = []Column{
	{Name: "id", Expr: "id", Kind: KindText},
	{Name: "name", Expr: "names.primary AS name", Kind: KindText},
	{Name: "confidence", Expr: "confidence", Kind: KindFloat},
	{Name: "primary_category", Expr: "categories.primary AS primary_category", Kind: KindText},
	{Name: "alternate_categories", Expr: "categories.alternate AS alternate_categories", Kind: KindTextList},
	{Name: "brand", Expr: "brand.names.primary AS brand", Kind: KindText},
	{Name: "operating_status", Expr: "operating_status", Kind: KindText},
	{Name: "websites", Expr: "websites", Kind: KindTextList},
	{Name: "socials", Expr: "socials", Kind: KindTextList},
	{Name: "phones", Expr: "phones", Kind: KindTextList},
	{Name: "emails", Expr: "emails", Kind: KindTextList},
	{Name: "street", Expr: "addresses[1].freeform AS street", Kind: KindText},
	{Name: "city", Expr: "addresses[1].locality AS city", Kind: KindText},
	{Name: "state", Expr: "addresses[1].region AS state", Kind: KindText},
	{Name: "postcode", Expr: "addresses[1].postcode AS postcode", Kind: KindText},
	{Name: "country", Expr: "addresses[1].country AS country", Kind: KindText},
	{Name: "lon", Expr: "ST_X(geometry) AS lon", Kind: KindFloat},
	{Name: "lat", Expr: "ST_Y(geometry) AS lat", Kind: KindFloat},
	{Name: "basic_category", Expr: "basic_category", Kind: KindText},
	{Name: "brand_wikidata", Expr: "brand.wikidata AS brand_wikidata", Kind: KindText},
}
