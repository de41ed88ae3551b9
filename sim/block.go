package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/milk9111/discbox/host"
	"github.com/milk9111/discbox/prefabs"
)

const AirID = "minecraft:air"

// BlockType is a registered block with enumerated states. The first value of
// each enumeration is the default.
type BlockType struct {
	ID           string
	States       map[string][]any
	Container    int
	Solid        bool
	TickInterval int
	Components   []string
}

func blockTypeFromSpec(s prefabs.BlockTypeSpec) *BlockType {
	states := make(map[string][]any, len(s.States))
	for name, values := range s.States {
		norm := make([]any, len(values))
		for i, v := range values {
			norm[i] = normalizeValue(v)
		}
		states[name] = norm
	}
	return &BlockType{
		ID:           s.ID,
		States:       states,
		Container:    s.Container,
		Solid:        s.Solid,
		TickInterval: s.TickInterval,
		Components:   append([]string(nil), s.Components...),
	}
}

// Default returns the permutation with every state at its first value.
func (t *BlockType) Default() *Permutation {
	values := make(map[string]any, len(t.States))
	for name, enum := range t.States {
		if len(enum) > 0 {
			values[name] = enum[0]
		}
	}
	return &Permutation{typ: t, values: values}
}

func (t *BlockType) accepts(state string, value any) error {
	enum, ok := t.States[state]
	if !ok {
		return fmt.Errorf("%w: %s on %s", host.ErrUnknownState, state, t.ID)
	}
	for _, v := range enum {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%v on %s", host.ErrInvalidState, state, value, t.ID)
}

// Permutation is an immutable block type plus state values.
type Permutation struct {
	typ    *BlockType
	values map[string]any
}

func (p *Permutation) TypeID() string {
	return p.typ.ID
}

func (p *Permutation) Type() *BlockType {
	return p.typ
}

func (p *Permutation) State(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

func (p *Permutation) WithState(name string, value any) (host.Permutation, error) {
	value = normalizeValue(value)
	if err := p.typ.accepts(name, value); err != nil {
		return nil, err
	}
	values := make(map[string]any, len(p.values))
	for k, v := range p.values {
		values[k] = v
	}
	values[name] = value
	return &Permutation{typ: p.typ, values: values}, nil
}

// States returns the state names in sorted order with their values.
func (p *Permutation) States() []StateValue {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]StateValue, len(names))
	for i, name := range names {
		out[i] = StateValue{Name: name, Value: p.values[name]}
	}
	return out
}

type StateValue struct {
	Name  string
	Value any
}

// normalizeValue folds the numeric types produced by YAML and scripts into
// int so enumerations compare by value.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case uint8:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return v
}

// cell is one stored block.
type cell struct {
	perm      *Permutation
	container *Container
}

// Block is a live reference to a location. It never caches state.
type Block struct {
	dim *Dimension
	loc host.Location
}

func (b *Block) Location() host.Location {
	return b.loc
}

func (b *Block) Dimension() host.Dimension {
	return b.dim
}

// TypeID returns the current block type, or "" when unloaded.
func (b *Block) TypeID() string {
	p := b.perm()
	if p == nil {
		return ""
	}
	return p.TypeID()
}

func (b *Block) Permutation() host.Permutation {
	p := b.perm()
	if p == nil {
		return nil
	}
	return p
}

func (b *Block) perm() *Permutation {
	if !b.dim.IsLoaded(b.loc) {
		return nil
	}
	return b.dim.cellAt(b.loc).perm
}

func (b *Block) SetPermutation(p host.Permutation) error {
	if !b.dim.IsLoaded(b.loc) {
		return host.ErrUnloaded
	}
	perm, ok := p.(*Permutation)
	if !ok || perm == nil {
		return fmt.Errorf("%w: foreign permutation %T", host.ErrTypeMismatch, p)
	}
	b.dim.setPermutation(b.loc, perm)
	return nil
}

func (b *Block) Below(n int) (host.Block, error) {
	return b.dim.Block(b.loc.Offset(0, -n, 0))
}

func (b *Block) Container() (host.Container, error) {
	if !b.dim.IsLoaded(b.loc) {
		return nil, host.ErrUnloaded
	}
	c := b.dim.cellAt(b.loc).container
	if c == nil {
		return nil, host.ErrNoContainer
	}
	return c, nil
}
