// Package augment implements the RandAugment and RandAugmentUDA policy
// engines. An engine samples operations from a policy table and dispatches
// them to a transform library; it never inspects the images it passes along.
package augment

import (
	"fmt"
	"math/rand/v2"
)

// QuantizeLevel is the number of discrete magnitude steps m is counted in.
const QuantizeLevel = 10

// Transform is one capability of a transform library.
type Transform[I any] func(img I, magnitude float64, fill FillColor) I

// Library maps every operation a library supports to its transform.
type Library[I any] map[Op]Transform[I]

// Variant selects how an engine decides whether and how strongly each
// sampled operation is applied.
type Variant int

const (
	// Deterministic applies every sampled op at the magnitude derived from m.
	Deterministic Variant = iota
	// UDA applies each sampled op with probability 0.5 at a uniform random magnitude.
	UDA
)

func (v Variant) String() string {
	switch v {
	case Deterministic:
		return "randaugment"
	case UDA:
		return "uda"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant accepts the names produced by Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "randaugment", "deterministic":
		return Deterministic, nil
	case "uda", "randaugment-uda":
		return UDA, nil
	}
	return 0, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("unknown variant %q", s)}
}

// Rand is the random source an engine draws from.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// Observer is told about every slot an engine processes.
type Observer interface {
	Dispatched(v Variant, op Op, magnitude float64)
	Skipped(v Variant, op Op)
	Applied(v Variant, dispatched int)
}

type Option func(*options)

type options struct {
	table    *Table
	fill     FillColor
	rng      Rand
	observer Observer
}

// WithTable replaces the variant's built-in policy table.
func WithTable(t Table) Option {
	return func(o *options) { o.table = &t }
}

func WithFillColor(f FillColor) Option {
	return func(o *options) { o.fill = f }
}

// WithRand sets the random source. The engine does not lock it.
func WithRand(r Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithSeed uses a PCG source seeded with seed. The resulting engine is not
// safe for concurrent use.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// decideFunc returns the magnitude for a sampled entry, or false to skip it.
type decideFunc func(e Entry) (float64, bool)

// Engine applies n randomly sampled operations to an image per call.
type Engine[I any] struct {
	variant  Variant
	n, m     int
	table    Table
	fill     FillColor
	rng      Rand
	observer Observer
	resolved []Transform[I]
	decide   decideFunc
}

// New builds an engine. The policy table is validated and every entry is
// resolved against lib once, here; a nil engine is returned on any error.
func New[I any](variant Variant, n, m int, lib Library[I], opts ...Option) (*Engine[I], error) {
	o := options{fill: Black, rng: globalRand{}}
	for _, opt := range opts {
		opt(&o)
	}

	if n < 0 {
		return nil, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("n must be non-negative, got %d", n)}
	}

	var table Table
	switch {
	case o.table != nil:
		table = *o.table
	case variant == Deterministic:
		table = DefaultTable()
	case variant == UDA:
		table = UDATable()
	default:
		return nil, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("unknown variant %d", int(variant))}
	}
	if err := Check(table); err != nil {
		return nil, err
	}

	resolved := make([]Transform[I], table.Len())
	for i, e := range table.entries {
		fn, ok := lib[e.Op]
		if !ok || fn == nil {
			return nil, &DispatchError{Name: e.Op.String()}
		}
		resolved[i] = fn
	}

	eng := &Engine[I]{
		variant:  variant,
		n:        n,
		m:        m,
		table:    table,
		fill:     o.fill,
		rng:      o.rng,
		observer: o.observer,
		resolved: resolved,
	}
	switch variant {
	case Deterministic:
		eng.decide = eng.deterministic
	case UDA:
		eng.decide = eng.probabilistic
	default:
		return nil, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("unknown variant %d", int(variant))}
	}
	return eng, nil
}

// NewRandAugment builds a Deterministic engine.
func NewRandAugment[I any](n, m int, lib Library[I], opts ...Option) (*Engine[I], error) {
	return New(Deterministic, n, m, lib, opts...)
}

// NewRandAugmentUDA builds a UDA engine. m is kept but never used to
// compute magnitudes.
func NewRandAugmentUDA[I any](n, m int, lib Library[I], opts ...Option) (*Engine[I], error) {
	return New(UDA, n, m, lib, opts...)
}

func (e *Engine[I]) Variant() Variant     { return e.variant }
func (e *Engine[I]) N() int               { return e.n }
func (e *Engine[I]) M() int               { return e.m }
func (e *Engine[I]) Table() Table         { return e.table }
func (e *Engine[I]) FillColor() FillColor { return e.fill }

// Magnitude interpolates between the entry's bounds at m/QuantizeLevel.
// m is not clamped.
func (e *Engine[I]) Magnitude(entry Entry) float64 {
	return Magnitude(e.m, entry)
}

// Magnitude is the deterministic magnitude for strength m.
func Magnitude(m int, entry Entry) float64 {
	v := float64(m) / QuantizeLevel
	return v*(entry.Max-entry.Min) + entry.Min
}

func (e *Engine[I]) deterministic(entry Entry) (float64, bool) {
	return e.Magnitude(entry), true
}

func (e *Engine[I]) probabilistic(entry Entry) (float64, bool) {
	if e.rng.Float64() >= 0.5 {
		return 0, false
	}
	return e.rng.Float64()*(entry.Max-entry.Min) + entry.Min, true
}

// Apply samples n entries with replacement and composes their transforms
// over img. With n == 0 img is returned unchanged.
func (e *Engine[I]) Apply(img I) (I, error) {
	dispatched := 0
	for range e.n {
		i := e.rng.IntN(e.table.Len())
		entry := e.table.entries[i]

		v, ok := e.decide(entry)
		if !ok {
			if e.observer != nil {
				e.observer.Skipped(e.variant, entry.Op)
			}
			continue
		}

		fn := e.resolved[i]
		if fn == nil {
			var zero I
			return zero, &DispatchError{Name: entry.Op.String()}
		}
		img = fn(img, v, e.fill)
		dispatched++
		if e.observer != nil {
			e.observer.Dispatched(e.variant, entry.Op, v)
		}
	}
	if e.observer != nil {
		e.observer.Applied(e.variant, dispatched)
	}
	return img, nil
}
