// Package discs holds the read-only disc catalog: which item identifiers are
// playable discs and how long, how loud and under which sound they play.
package discs

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/milk9111/discbox/prefabs"
	"github.com/samber/lo"
)

var (
	ErrDuplicateDisc = errors.New("discs: duplicate disc identifier")
	ErrInvalidDisc   = errors.New("discs: invalid disc definition")
)

// Definition describes one playable disc. Ticks is the playback length in
// host ticks (20 per second).
type Definition struct {
	ID     string
	Title  string
	Artist string
	Sound  string
	Volume float64
	Ticks  int
}

// Namespace returns the part of the identifier before the first ':'.
func (d Definition) Namespace() string {
	ns, _, ok := strings.Cut(d.ID, ":")
	if !ok {
		return ""
	}
	return ns
}

// Catalog maps disc identifiers to definitions. It is safe for concurrent
// use; Reload swaps the whole table at once.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]Definition
	order []string
}

// New validates defs and builds a catalog. Order of defs is kept for All.
func New(defs []Definition) (*Catalog, error) {
	c := &Catalog{}
	if err := c.replace(defs); err != nil {
		return nil, err
	}
	return c, nil
}

// Load builds a catalog from the discs prefab.
func Load() (*Catalog, error) {
	defs, err := loadDefinitions()
	if err != nil {
		return nil, err
	}
	return New(defs)
}

// Lookup returns the definition for id. A miss is an ordinary outcome.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byID[id]
	return d, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// All returns every definition in declaration order.
func (c *Catalog) All() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.order, func(id string, _ int) Definition { return c.byID[id] })
}

// Namespaces lists the distinct identifier namespaces, sorted.
func (c *Catalog) Namespaces() []string {
	ns := lo.Uniq(lo.Map(c.All(), func(d Definition, _ int) string { return d.Namespace() }))
	sort.Strings(ns)
	return ns
}

// Reload re-reads the discs prefab. On error the current table is kept.
func (c *Catalog) Reload() error {
	defs, err := loadDefinitions()
	if err != nil {
		return err
	}
	return c.replace(defs)
}

func (c *Catalog) replace(defs []Definition) error {
	byID := make(map[string]Definition, len(defs))
	order := make([]string, 0, len(defs))
	for i, d := range defs {
		if err := validate(d); err != nil {
			return fmt.Errorf("disc %d (%q): %w", i, d.ID, err)
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDisc, d.ID)
		}
		byID[d.ID] = d
		order = append(order, d.ID)
	}

	c.mu.Lock()
	c.byID = byID
	c.order = order
	c.mu.Unlock()
	return nil
}

func validate(d Definition) error {
	switch {
	case d.ID == "" || !strings.Contains(d.ID, ":"):
		return fmt.Errorf("%w: identifier must be namespaced", ErrInvalidDisc)
	case d.Sound == "":
		return fmt.Errorf("%w: missing sound", ErrInvalidDisc)
	case d.Ticks <= 0:
		return fmt.Errorf("%w: ticks must be positive", ErrInvalidDisc)
	case d.Volume < 0:
		return fmt.Errorf("%w: negative volume", ErrInvalidDisc)
	}
	return nil
}

func loadDefinitions() ([]Definition, error) {
	spec, err := prefabs.LoadDiscCatalogSpec()
	if err != nil {
		return nil, err
	}
	return lo.Map(spec.Discs, func(s prefabs.DiscSpec, _ int) Definition {
		return FromSpec(s)
	}), nil
}

func FromSpec(s prefabs.DiscSpec) Definition {
	return Definition{
		ID:     s.ID,
		Title:  s.Title,
		Artist: s.Artist,
		Sound:  s.Sound,
		Volume: s.Volume,
		Ticks:  s.Ticks,
	}
}

func ToSpec(d Definition) prefabs.DiscSpec {
	return prefabs.DiscSpec{
		ID:     d.ID,
		Title:  d.Title,
		Artist: d.Artist,
		Sound:  d.Sound,
		Volume: d.Volume,
		Ticks:  d.Ticks,
	}
}

// Watch reloads the catalog whenever the discs prefab changes on disk until
// stop is closed. Reload failures are logged and the previous table stays.
func (c *Catalog) Watch(w *prefabs.Watcher, stop <-chan struct{}, onReload func()) {
	go func() {
		for {
			select {
			case name, ok := <-w.Events:
				if !ok {
					return
				}
				if name != prefabs.DiscsFile {
					continue
				}
				if err := c.Reload(); err != nil {
					log.Printf("discs: reload %s: %v", name, err)
					continue
				}
				log.Printf("discs: reloaded %d discs", c.Len())
				if onReload != nil {
					onReload()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("discs: watch: %v", err)
			case <-stop:
				return
			}
		}
	}()
}
