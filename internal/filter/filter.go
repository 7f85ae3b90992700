// Package filter decides which fetched ads become sheet rows.
package filter

import (
	"strings"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
)

// Reason explains why an ad was rejected.
type Reason string

const (
	ReasonExisting   Reason = "existing"
	ReasonIncomplete Reason = "incomplete"
	ReasonOutOfRange Reason = "engine_out_of_range"
	ReasonDuplicate  Reason = "duplicate_in_run"
)

const (
	DefaultEngineMin = 500
	DefaultEngineMax = 1100
)

// KeyChecker is the membership test of the existing-key index.
type KeyChecker interface {
	Contains(guid string) bool
}

// Options configures the acceptance band.
type Options struct {
	EngineMin int
	EngineMax int
}

// Decision is the outcome for a single ad. Row is set only when Accepted.
type Decision struct {
	Row      domain.Row
	Accepted bool
	Reason   Reason
}

// Filter is stateless and safe for concurrent use.
type Filter struct {
	existing KeyChecker
	opts     Options
}

// New builds a filter over the given existing-key index.
func New(existing KeyChecker, opts Options) *Filter {
	if opts.EngineMin == 0 && opts.EngineMax == 0 {
		opts.EngineMin, opts.EngineMax = DefaultEngineMin, DefaultEngineMax
	}
	return &Filter{existing: existing, opts: opts}
}

// Decide runs the checks in order and stops at the first rejection.
func (f *Filter) Decide(ad domain.RawAd) Decision {
	if f.existing != nil && f.existing.Contains(strings.TrimSpace(ad.GUID)) {
		return reject(ReasonExisting)
	}

	row, ok := Normalize(ad)
	if !ok {
		return reject(ReasonIncomplete)
	}

	if row.Engine < f.opts.EngineMin || row.Engine > f.opts.EngineMax {
		return reject(ReasonOutOfRange)
	}

	return Decision{Row: row, Accepted: true}
}

func reject(r Reason) Decision {
	return Decision{Reason: r}
}

// Normalize projects an ad onto the row schema. It reports false when any
// field is blank or a numeric field cannot be parsed.
func Normalize(ad domain.RawAd) (domain.Row, bool) {
	text := []string{
		ad.GUID, ad.Title, ad.Date,
		ad.Attr(domain.AttrPrice), ad.Attr(domain.AttrColour), ad.Attr(domain.AttrKilometers),
		ad.Attr(domain.AttrMake), ad.Attr(domain.AttrModel),
		ad.Attr(domain.AttrYear), ad.Attr(domain.AttrEngine),
	}
	for _, v := range text {
		if strings.TrimSpace(v) == "" {
			return domain.Row{}, false
		}
	}

	price, ok := ParsePrice(ad.Attr(domain.AttrPrice))
	if !ok {
		return domain.Row{}, false
	}
	year, ok := ParseInt(ad.Attr(domain.AttrYear))
	if !ok {
		return domain.Row{}, false
	}
	engine, ok := ParseInt(ad.Attr(domain.AttrEngine))
	if !ok {
		return domain.Row{}, false
	}

	return domain.Row{
		GUID:       strings.TrimSpace(ad.GUID),
		Title:      strings.TrimSpace(ad.Title),
		Date:       strings.TrimSpace(ad.Date),
		Price:      price,
		Colour:     strings.TrimSpace(ad.Attr(domain.AttrColour)),
		Kilometers: strings.TrimSpace(ad.Attr(domain.AttrKilometers)),
		Make:       strings.TrimSpace(ad.Attr(domain.AttrMake)),
		Model:      strings.TrimSpace(ad.Attr(domain.AttrModel)),
		Year:       year,
		Engine:     engine,
	}, true
}
