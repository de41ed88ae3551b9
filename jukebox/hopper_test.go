package jukebox

import (
	"testing"

	"github.com/milk9111/discbox/host"
	"github.com/milk9111/discbox/sim"
)

func TestDirectionOffsets(t *testing.T) {
	cases := []struct {
		dir  Direction
		want host.Location
	}{
		{Up, host.Location{Y: 1}},
		{North, host.Location{Z: -1}},
		{South, host.Location{Z: 1}},
		{East, host.Location{X: 1}},
		{West, host.Location{X: -1}},
	}
	for _, c := range cases {
		if got := c.dir.Offset(host.Location{}); got != c.want {
			t.Errorf("%s offset = %v, want %v", c.dir, got, c.want)
		}
	}
	if _, err := ParseDirection("down"); err == nil {
		t.Fatal("down is not a feeder side")
	}
}

func TestFindFeederContainers(t *testing.T) {
	f := newFixture(t)
	h := NewHoppers(f.cfg)
	// South, west, up and north point in; the east hopper points away.
	f.hopper(origin.Offset(0, 0, 1), 2, discFar)
	f.hopper(origin.Offset(-1, 0, 0), 5, discCat)
	f.hopper(origin.Offset(0, 1, 0), 0, disc13)
	f.hopper(origin.Offset(1, 0, 0), 5, discCat)
	f.hopper(origin.Offset(0, 0, -1), 3, disc13)

	b, _ := f.world.BlockAt(sim.DefaultDimension, origin)
	feeders := h.FindFeederContainers(b, f.world.Dimension(sim.DefaultDimension))
	if len(feeders) != 4 {
		t.Fatalf("feeders = %d, want 4", len(feeders))
	}
	want := []string{disc13, disc13, discFar, discCat}
	for i, c := range feeders {
		item, ok := c.Item(0)
		if !ok || item.TypeID != want[i] {
			t.Fatalf("feeder %d holds %+v, want %s", i, item, want[i])
		}
	}
}

func TestFindFeederSkipsUnloaded(t *testing.T) {
	f := newFixture(t)
	h := NewHoppers(f.cfg)
	west := origin.Offset(-1, 0, 0)
	f.hopper(west, 5, discCat)
	d := f.world.Dimension(sim.DefaultDimension)
	d.SetLoaded(west, false)

	b := &stubBlock{loc: origin, dim: d}
	if n := len(h.FindFeederContainers(b, d)); n != 0 {
		t.Fatalf("found %d feeders in an unloaded chunk", n)
	}
}

func TestFindOutputContainer(t *testing.T) {
	f := newFixture(t)
	h := NewHoppers(f.cfg)
	b, _ := f.world.BlockAt(sim.DefaultDimension, origin)

	if _, ok := h.FindOutputContainer(b); ok {
		t.Fatal("stone below is not an output")
	}
	f.world.Place(sim.DefaultDimension, origin.Offset(0, -1, 0), "minecraft:chest", nil)
	if _, ok := h.FindOutputContainer(b); ok {
		t.Fatal("only the hopper type counts as output")
	}
	f.hopper(origin.Offset(0, -1, 0), 2)
	if _, ok := h.FindOutputContainer(b); !ok {
		t.Fatal("hopper below not found")
	}
}

// stubBlock is a block reference that only knows its position.
type stubBlock struct {
	loc host.Location
	dim host.Dimension
}

func (b *stubBlock) TypeID() string                        { return "" }
func (b *stubBlock) Location() host.Location               { return b.loc }
func (b *stubBlock) Dimension() host.Dimension             { return b.dim }
func (b *stubBlock) Permutation() host.Permutation         { return nil }
func (b *stubBlock) SetPermutation(host.Permutation) error { return host.ErrUnloaded }
func (b *stubBlock) Below(n int) (host.Block, error)       { return b.dim.Block(b.loc.Offset(0, -n, 0)) }
func (b *stubBlock) Container() (host.Container, error)    { return nil, host.ErrNoContainer }
