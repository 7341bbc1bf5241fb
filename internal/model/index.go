package model

import (
	"time"

	"github.com/google/uuid"
)

// VenueIndex is one immutable generation of the mint to venue mapping.
// A new generation is built wholesale and never mutated after construction.
type VenueIndex struct {
	Generation uuid.UUID
	BuiltAt    time.Time

	byID    map[string]Venue
	byBase  map[string][]string
	byQuote map[string][]string
}

// NewVenueIndex builds a generation from venues. Later duplicates of the same
// address replace earlier ones.
func NewVenueIndex(venues []Venue, builtAt time.Time) *VenueIndex {
	idx := &VenueIndex{
		Generation: uuid.New(),
		BuiltAt:    builtAt,
		byID:       make(map[string]Venue, len(venues)),
		byBase:     make(map[string][]string),
		byQuote:    make(map[string][]string),
	}
	order := make([]string, 0, len(venues))
	for _, v := range venues {
		if _, seen := idx.byID[v.Address]; !seen {
			order = append(order, v.Address)
		}
		idx.byID[v.Address] = v
	}
	for _, id := range order {
		v := idx.byID[id]
		idx.byBase[v.BaseMint] = append(idx.byBase[v.BaseMint], id)
		idx.byQuote[v.QuoteMint] = append(idx.byQuote[v.QuoteMint], id)
	}
	return idx
}

// Len returns the number of venues in the generation.
func (idx *VenueIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byID)
}

// Venue looks up a venue by address.
func (idx *VenueIndex) Venue(address string) (Venue, bool) {
	if idx == nil {
		return Venue{}, false
	}
	v, ok := idx.byID[address]
	return v, ok
}

// ByBaseMint returns copies of all venues whose base mint is mint.
func (idx *VenueIndex) ByBaseMint(mint string) []Venue {
	if idx == nil {
		return nil
	}
	return idx.collect(idx.byBase[mint])
}

// ByQuoteMint returns copies of all venues whose quote mint is mint.
func (idx *VenueIndex) ByQuoteMint(mint string) []Venue {
	if idx == nil {
		return nil
	}
	return idx.collect(idx.byQuote[mint])
}

// All returns every venue in the generation.
func (idx *VenueIndex) All() []Venue {
	if idx == nil {
		return nil
	}
	out := make([]Venue, 0, len(idx.byID))
	for _, v := range idx.byID {
		out = append(out, v)
	}
	return out
}

// BaseMintCounts returns the number of venues per base mint.
func (idx *VenueIndex) BaseMintCounts() map[string]int {
	if idx == nil {
		return map[string]int{}
	}
	out := make(map[string]int, len(idx.byBase))
	for mint, ids := range idx.byBase {
		out[mint] = len(ids)
	}
	return out
}

func (idx *VenueIndex) collect(ids []string) []Venue {
	out := make([]Venue, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.byID[id])
	}
	return out
}
