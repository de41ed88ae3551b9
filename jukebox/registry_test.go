package jukebox

import (
	"testing"

	"github.com/milk9111/discbox/discs"
	"github.com/milk9111/discbox/host"
)

func TestRegistryRemoveOnlyOwnRun(t *testing.T) {
	r := NewRegistry()
	k := Key{Dimension: "minecraft:overworld", Location: host.Location{X: 1}}
	old := &run{key: k, disc: discs.Definition{ID: "a:old"}}
	cur := &run{key: k, disc: discs.Definition{ID: "a:new"}}

	r.put(old)
	r.put(cur)
	r.remove(old)
	if disc, ok := r.Disc(k); !ok || disc != "a:new" {
		t.Fatalf("late removal dropped the successor: %q %v", disc, ok)
	}
	r.remove(cur)
	if r.Has(k) || r.Len() != 0 {
		t.Fatal("run not removed")
	}
}

func TestRegistryKeysSorted(t *testing.T) {
	r := NewRegistry()
	for _, k := range []Key{
		{Dimension: "b", Location: host.Location{X: 0}},
		{Dimension: "a", Location: host.Location{X: 2}},
		{Dimension: "a", Location: host.Location{X: 1}},
	} {
		r.put(&run{key: k})
	}
	keys := r.Keys()
	if keys[0].Location.X != 1 || keys[1].Location.X != 2 || keys[2].Dimension != "b" {
		t.Fatalf("keys = %v", keys)
	}
	if got := keys[0].String(); got != "a@1,0,0" {
		t.Fatalf("key string %q", got)
	}
}
