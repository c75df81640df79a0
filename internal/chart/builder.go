// Package chart builds immutable chart snapshots and compares them.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/lagna/internal/ayanamsa"
	"github.com/ppiankov/lagna/internal/cache"
	"github.com/ppiankov/lagna/internal/divisional"
	"github.com/ppiankov/lagna/internal/ephemeris"
	"github.com/ppiankov/lagna/internal/houses"
	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/validate"
)

// Builder composes ephemeris, ayanamsa, houses and divisional rules into
// snapshots. It is safe for concurrent use.
type Builder struct {
	cache cache.Cache
	ttl   time.Duration
}

// Option configures a Builder
type Option func(*Builder)

// WithCache memoizes snapshots and transits in c
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(b *Builder) {
		b.cache = c
		b.ttl = ttl
	}
}

// NewBuilder creates a new snapshot builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildQuery validates a BirthQuery and builds the chart for its reported
// instant. Chart choices carried by the query override opts.
func (b *Builder) BuildQuery(q model.BirthQuery, opts model.ChartOptions) (model.ChartSnapshot, error) {
	if err := validate.Query(q); err != nil {
		return model.ChartSnapshot{}, err
	}
	merged, err := opts.Merge(q)
	if err != nil {
		return model.ChartSnapshot{}, err
	}
	instant, err := q.Instant()
	if err != nil {
		return model.ChartSnapshot{}, err
	}
	return b.Build(instant, q.Latitude, q.Longitude, merged)
}

// Build returns the snapshot for one instant, location and option set.
// Errors are permanent for the given input.
func (b *Builder) Build(instant time.Time, lat, lon float64, opts model.ChartOptions) (model.ChartSnapshot, error) {
	if err := validate.Coordinates(lat, lon); err != nil {
		return model.ChartSnapshot{}, err
	}
	kind := opts.Division
	if kind == "" {
		kind = model.D1
	}
	kind, err := divisional.ParseKind(string(kind))
	if err != nil {
		return model.ChartSnapshot{}, err
	}
	opts.Division = kind
	instant = instant.UTC()

	key := cache.SnapshotKey(instant, lat, lon, opts)
	if snap, ok := b.cached(key); ok {
		return snap, nil
	}

	d1, err := b.base(instant, lat, lon, opts)
	if err != nil {
		return model.ChartSnapshot{}, err
	}

	snap := d1
	if kind != model.D1 {
		snap, err = divisional.Derive(d1, kind)
		if err != nil {
			return model.ChartSnapshot{}, err
		}
	}

	b.store(key, snap)
	return snap, nil
}

// Transits returns the sidereal positions of every body at t, without houses
func (b *Builder) Transits(t time.Time, opts model.ChartOptions) ([]model.CelestialPosition, error) {
	t = t.UTC()
	key := cache.Key("transits", t.Format(time.RFC3339Nano), opts.Ayanamsa, string(opts.NodeMode))
	if b.cache != nil {
		if data, ok := b.cache.Get(key); ok {
			var out []model.CelestialPosition
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
		}
	}

	aya, err := ayanamsa.Parse(opts.Ayanamsa)
	if err != nil {
		return nil, err
	}
	tropical, err := ephemeris.Positions(t, opts.NodeMode)
	if err != nil {
		return nil, err
	}
	_, out := aya.Correct(t, tropical)

	if b.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = b.cache.Set(key, data, b.ttl)
		}
	}
	return out, nil
}

// base builds the D1 chart, applying the Whole Sign fallback when allowed
func (b *Builder) base(instant time.Time, lat, lon float64, opts model.ChartOptions) (model.ChartSnapshot, error) {
	aya, err := ayanamsa.Parse(opts.Ayanamsa)
	if err != nil {
		return model.ChartSnapshot{}, err
	}
	tropical, err := ephemeris.Positions(instant, opts.NodeMode)
	if err != nil {
		return model.ChartSnapshot{}, err
	}
	value, positions := aya.Correct(instant, tropical)

	snap := model.ChartSnapshot{
		Kind:      model.D1,
		Instant:   instant,
		Latitude:  lat,
		Longitude: lon,
		Ayanamsa:  value,
		NodeMode:  opts.NodeMode,
		Positions: positions,
	}

	hs, err := houses.Compute(instant, lat, lon, opts.HouseSystem, value.Value)
	var undefined *model.HouseSystemUndefinedError
	if errors.As(err, &undefined) && opts.FallbackWholeSign && opts.HouseSystem != model.WholeSign {
		hs, err = houses.Compute(instant, lat, lon, model.WholeSign, value.Value)
		snap.HouseFallbackFrom = opts.HouseSystem
	}
	if err != nil {
		return model.ChartSnapshot{}, fmt.Errorf("houses: %w", err)
	}

	snap.Houses = hs
	for i := range snap.Positions {
		snap.Positions[i].House = hs.HouseOf(snap.Positions[i].Longitude)
	}
	return snap, nil
}

func (b *Builder) cached(key string) (model.ChartSnapshot, bool) {
	if b.cache == nil {
		return model.ChartSnapshot{}, false
	}
	data, ok := b.cache.Get(key)
	if !ok {
		return model.ChartSnapshot{}, false
	}
	var snap model.ChartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = b.cache.Delete(key)
		return model.ChartSnapshot{}, false
	}
	return snap, true
}

func (b *Builder) store(key string, snap model.ChartSnapshot) {
	if b.cache == nil {
		return
	}
	if data, err := json.Marshal(snap); err == nil {
		_ = b.cache.Set(key, data, b.ttl)
	}
}
