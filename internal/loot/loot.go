// Package loot rolls cosmetic drops against a rarity table while avoiding
// items the player already owns.
package loot

import (
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/rng"
)

// Key builds the "type:name" ownership key.
func Key(itemType model.ItemType, name string) string {
	return string(itemType) + ":" + name
}

// Tier is the chance of a drop landing on a rarity.
type Tier struct {
	Rarity model.Rarity
	Chance float64
}

// DefaultTiers is ordered rarest first. Chances sum to the overall drop rate.
var DefaultTiers = []Tier{
	{Rarity: model.RarityLegendary, Chance: 0.005},
	{Rarity: model.RarityEpic, Chance: 0.015},
	{Rarity: model.RarityRare, Chance: 0.04},
	{Rarity: model.RarityUncommon, Chance: 0.08},
	{Rarity: model.RarityCommon, Chance: 0.16},
}

// Owned is a set of ownership keys.
type Owned map[string]struct{}

// NewOwned builds an Owned set from keys.
func NewOwned(keys ...string) Owned {
	o := make(Owned, len(keys))
	for _, k := range keys {
		o[k] = struct{}{}
	}
	return o
}

// Has reports whether key is owned.
func (o Owned) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Roller draws loot. It holds no mutable state beyond its random source.
type Roller struct {
	catalog []Entry
	tiers   []Tier
	src     rng.Source
}

// NewRoller creates a Roller. Nil catalog or tiers use the defaults.
func NewRoller(src rng.Source, catalog []Entry, tiers []Tier) *Roller {
	if src == nil {
		src = rng.Global()
	}
	if catalog == nil {
		catalog = DefaultCatalog
	}
	if tiers == nil {
		tiers = DefaultTiers
	}
	return &Roller{catalog: catalog, tiers: tiers, src: src}
}

// Roll draws once against the cumulative tier chances. When the hit tier has
// nothing left to give, the roll falls through to the next more common tier.
// Returns nil when nothing drops or every eligible tier is fully owned.
func (r *Roller) Roll(owned Owned) *Entry {
	draw := r.src.Float64()

	hit := -1
	cumulative := 0.0
	for i, t := range r.tiers {
		cumulative += t.Chance
		if draw < cumulative {
			hit = i
			break
		}
	}
	if hit < 0 {
		return nil
	}

	for _, t := range r.tiers[hit:] {
		candidates := r.candidates(t.Rarity, owned)
		if len(candidates) == 0 {
			continue
		}
		e := rng.Pick(r.src, candidates)
		return &e
	}
	return nil
}

func (r *Roller) candidates(rarity model.Rarity, owned Owned) []Entry {
	var out []Entry
	for _, e := range r.catalog {
		if e.Rarity == rarity && !owned.Has(e.Key()) {
			out = append(out, e)
		}
	}
	return out
}

// Catalog returns the entries the roller draws from.
func (r *Roller) Catalog() []Entry {
	return r.catalog
}
