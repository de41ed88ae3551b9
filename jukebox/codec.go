package jukebox

import (
	"log"
	"strings"

	"github.com/milk9111/discbox/host"
	"github.com/samber/lo"
)

// None is the value of an empty slot.
const None = "none"

// Contents is what a jukebox holds: Disc is empty when nothing is loaded.
type Contents struct {
	Disc    string
	Playing bool
}

func (c Contents) Loaded() bool {
	return c.Disc != ""
}

// Codec maps Contents onto the jukebox's enumerated block states. Slots are
// mutually exclusive; a disc goes into the first slot of its bucket whose
// enumeration lists it.
type Codec struct {
	playing   string
	vanilla   []string
	custom    []string
	vanillaNS string
	values    map[string][]string
}

func NewCodec(cfg Config) *Codec {
	return &Codec{
		playing:   cfg.PlayingState,
		vanilla:   cfg.VanillaSlots,
		custom:    cfg.CustomSlots,
		vanillaNS: cfg.VanillaNamespace,
		values:    cfg.SlotValues,
	}
}

// Slots returns every slot state in scan order.
func (c *Codec) Slots() []string {
	return append(append([]string(nil), c.vanilla...), c.custom...)
}

// ReadLoadedDisc returns the first non-empty slot value in scan order.
func (c *Codec) ReadLoadedDisc(p host.Permutation) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, slot := range c.Slots() {
		v, ok := p.State(slot)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" && s != None {
			return s, true
		}
	}
	return "", false
}

func (c *Codec) IsPlaying(p host.Permutation) bool {
	if p == nil {
		return false
	}
	v, ok := p.State(c.playing)
	if !ok {
		return false
	}
	playing, _ := v.(bool)
	return playing
}

func (c *Codec) Decode(p host.Permutation) Contents {
	disc, _ := c.ReadLoadedDisc(p)
	return Contents{Disc: disc, Playing: c.IsPlaying(p)}
}

// Accepts reports whether some slot can hold id.
func (c *Codec) Accepts(id string) bool {
	_, ok := c.slotFor(id)
	return ok
}

// Slot returns the state that stores id.
func (c *Codec) Slot(id string) (string, bool) {
	slot, ok := c.slotFor(id)
	if !ok {
		return "", false
	}
	return slot, true
}

// slotFor picks the slot for id. When no enumeration lists id it still
// returns the last slot of the bucket so the failed write is reported.
func (c *Codec) slotFor(id string) (string, bool) {
	bucket := c.custom
	if c.vanillaNS != "" && strings.HasPrefix(id, c.vanillaNS) {
		bucket = c.vanilla
	}
	if len(bucket) == 0 {
		return "", false
	}
	for _, slot := range bucket {
		if lo.Contains(c.values[slot], id) {
			return slot, true
		}
	}
	return bucket[len(bucket)-1], false
}

// WriteLoadedDisc sets the playing flag, empties every slot and stores id.
// A rejected write of a single state is logged and skipped; ok is false when
// id itself could not be stored.
func (c *Codec) WriteLoadedDisc(p host.Permutation, id string) (host.Permutation, bool) {
	p = c.write(p, c.playing, true)
	for _, slot := range c.Slots() {
		p = c.write(p, slot, None)
	}
	slot, _ := c.slotFor(id)
	if slot == "" {
		log.Printf("jukebox: no slot bucket for %s", id)
		return p, false
	}
	next, err := p.WithState(slot, id)
	if err != nil {
		log.Printf("jukebox: write %s=%s: %v", slot, id, err)
		return p, false
	}
	return next, true
}

// Clear empties every slot and resets the playing flag.
func (c *Codec) Clear(p host.Permutation) host.Permutation {
	p = c.write(p, c.playing, false)
	for _, slot := range c.Slots() {
		p = c.write(p, slot, None)
	}
	return p
}

// SetPlaying changes only the playing flag.
func (c *Codec) SetPlaying(p host.Permutation, playing bool) host.Permutation {
	return c.write(p, c.playing, playing)
}

func (c *Codec) write(p host.Permutation, state string, value any) host.Permutation {
	next, err := p.WithState(state, value)
	if err != nil {
		log.Printf("jukebox: write %s=%v: %v", state, value, err)
		return p
	}
	return next
}
