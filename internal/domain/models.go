package domain

import "strconv"

// Domain contains core models and interfaces.

// AdTypeOffer is the ad type filter applied to every search.
const AdTypeOffer = "OFFER"

// Listing attribute names as published by the listings source.
const (
	AttrPrice      = "Price"
	AttrColour     = "Colour"
	AttrKilometers = "Kilometers"
	AttrMake       = "Make"
	AttrModel      = "Model"
	AttrYear       = "Year"
	AttrEngine     = "Engine Displacement (cc)"
)

// Persisted column keys. Existing sheets depend on these names.
const (
	ColGUID       = "guid"
	ColTitle      = "title"
	ColDate       = "date"
	ColPrice      = "price"
	ColColour     = "colour"
	ColKilometers = "kilometers"
	ColMake       = "make"
	ColModel      = "model"
	ColYear       = "year"
	ColEngine     = "engine"
)

// Columns lists the row schema in its canonical order.
var Columns = []string{
	ColGUID, ColTitle, ColDate, ColPrice, ColColour,
	ColKilometers, ColMake, ColModel, ColYear, ColEngine,
}

// PriceBounds holds the optional price filter forwarded to the listings source.
type PriceBounds struct {
	Min *float64
	Max *float64
}

// SearchTask is one (location, category) query.
type SearchTask struct {
	LocationID string
	CategoryID string
	Price      PriceBounds
	AdType     string
}

// RawAd is a listing as returned by the listings source.
type RawAd struct {
	GUID  string
	Title string
	Date  string
	URL   string
	Info  map[string]string
}

// Attr returns the named listing attribute, or "" when absent.
func (a RawAd) Attr(name string) string {
	if a.Info == nil {
		return ""
	}
	return a.Info[name]
}

// Row is an ad projected onto the sheet's column schema.
type Row struct {
	GUID       string
	Title      string
	Date       string
	Price      float64
	Colour     string
	Kilometers string
	Make       string
	Model      string
	Year       int
	Engine     int
}

// Values returns the row keyed by persisted column name.
func (r Row) Values() map[string]string {
	return map[string]string{
		ColGUID:       r.GUID,
		ColTitle:      r.Title,
		ColDate:       r.Date,
		ColPrice:      strconv.FormatFloat(r.Price, 'f', -1, 64),
		ColColour:     r.Colour,
		ColKilometers: r.Kilometers,
		ColMake:       r.Make,
		ColModel:      r.Model,
		ColYear:       strconv.Itoa(r.Year),
		ColEngine:     strconv.Itoa(r.Engine),
	}
}
