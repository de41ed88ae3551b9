package jukebox

import (
	"sort"

	"github.com/milk9111/discbox/host"
)

// Key addresses one jukebox instance.
type Key struct {
	Dimension string
	Location  host.Location
}

func KeyOf(b host.Block) Key {
	k := Key{Location: b.Location()}
	if d := b.Dimension(); d != nil {
		k.Dimension = d.ID()
	}
	return k
}

func (k Key) String() string {
	return k.Dimension + "@" + k.Location.String()
}

// Registry records the live playback run of each jukebox. It is transient:
// a fresh registry after a restart is how orphaned playing flags are found.
// Not safe for concurrent use; the host calls back on one goroutine.
type Registry struct {
	runs map[Key]*run
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[Key]*run)}
}

func (r *Registry) Has(k Key) bool {
	_, ok := r.runs[k]
	return ok
}

func (r *Registry) Len() int {
	return len(r.runs)
}

// Keys returns the registered keys sorted by dimension then position.
func (r *Registry) Keys() []Key {
	out := make([]Key, 0, len(r.runs))
	for k := range r.runs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Dimension != b.Dimension {
			return a.Dimension < b.Dimension
		}
		if a.Location.X != b.Location.X {
			return a.Location.X < b.Location.X
		}
		if a.Location.Y != b.Location.Y {
			return a.Location.Y < b.Location.Y
		}
		return a.Location.Z < b.Location.Z
	})
	return out
}

// Disc returns the disc playing at k.
func (r *Registry) Disc(k Key) (string, bool) {
	run, ok := r.runs[k]
	if !ok {
		return "", false
	}
	return run.disc.ID, true
}

func (r *Registry) get(k Key) *run {
	return r.runs[k]
}

func (r *Registry) put(run *run) {
	r.runs[run.key] = run
}

// remove deletes k only while it still maps to run, so a late callback of
// an old run cannot drop its successor.
func (r *Registry) remove(run *run) {
	if cur, ok := r.runs[run.key]; ok && cur == run {
		delete(r.runs, run.key)
	}
}
