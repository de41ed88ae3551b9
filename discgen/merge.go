package discgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/milk9111/discbox/prefabs"
	"github.com/samber/lo"
)

// MaxSlotValues is the most values a block state enumeration may hold.
const MaxSlotValues = 16

var ErrNoCustomSlots = errors.New("discgen: jukebox has no custom slots")

// MergeCatalog replaces the discs of namespace in spec with tracks. Discs of
// other namespaces keep their order; generated discs follow them.
func MergeCatalog(spec prefabs.DiscCatalogSpec, tracks []Track, namespace string) prefabs.DiscCatalogSpec {
	prefix := namespace + ":"
	kept := lo.Filter(spec.Discs, func(d prefabs.DiscSpec, _ int) bool {
		return !strings.HasPrefix(d.ID, prefix)
	})
	generated := lo.Map(tracks, func(t Track, _ int) prefabs.DiscSpec {
		return prefabs.DiscSpec{
			ID:     t.ItemID(namespace),
			Title:  t.Title,
			Artist: t.Artist,
			Sound:  t.Sound(),
			Volume: DiscVolume,
			Ticks:  t.Ticks,
		}
	})
	return prefabs.DiscCatalogSpec{Discs: append(kept, generated...)}
}

var slotIndex = regexp.MustCompile(`(\d+)$`)

// nextSlotName numbers the slot after name: custom_disc_2 follows
// custom_disc_1.
func nextSlotName(name string) string {
	m := slotIndex.FindStringSubmatchIndex(name)
	if m == nil {
		return name + "_2"
	}
	n, _ := strconv.Atoi(name[m[2]:m[3]])
	return name[:m[2]] + strconv.Itoa(n+1)
}

// MergeSlots rewrites the custom slot enumerations of spec so they hold
// exactly ids for namespace, "none" first and at most capacity values each.
// Values of other namespaces stay where they are. Slots are added when the
// existing ones run out of room.
func MergeSlots(spec prefabs.JukeboxSpec, ids []string, namespace string, capacity int) (prefabs.JukeboxSpec, error) {
	if len(spec.Slots.Custom) == 0 {
		return spec, ErrNoCustomSlots
	}
	if capacity < 2 {
		return spec, fmt.Errorf("discgen: slot capacity %d leaves no room for discs", capacity)
	}
	prefix := namespace + ":"
	states := maps.Clone(spec.Block.States)
	if states == nil {
		states = map[string][]any{}
	}
	slots := append([]string(nil), spec.Slots.Custom...)

	for _, slot := range slots {
		values := []any{"none"}
		for _, v := range states[slot] {
			s, ok := v.(string)
			if !ok || s == "none" || strings.HasPrefix(s, prefix) {
				continue
			}
			values = append(values, s)
		}
		states[slot] = values
	}

	pending := lo.Uniq(ids)
	for i := 0; len(pending) > 0; i++ {
		if i == len(slots) {
			name := nextSlotName(slots[len(slots)-1])
			slots = append(slots, name)
			states[name] = []any{"none"}
		}
		slot := slots[i]
		room := capacity - len(states[slot])
		if room <= 0 {
			continue
		}
		n := min(room, len(pending))
		for _, id := range pending[:n] {
			states[slot] = append(states[slot], id)
		}
		pending = pending[n:]
	}

	spec.Block.States = states
	spec.Slots.Custom = slots
	return spec, nil
}

type soundFile struct {
	LoadOnLowMemory bool    `json:"load_on_low_memory"`
	Name            string  `json:"name"`
	Stream          bool    `json:"stream"`
	Volume          float64 `json:"volume"`
}

type soundDefinition struct {
	UseLegacyMaxDistance bool        `json:"__use_legacy_max_distance"`
	Category             string      `json:"category"`
	MaxDistance          float64     `json:"max_distance"`
	MinDistance          *float64    `json:"min_distance"`
	Sounds               []soundFile `json:"sounds"`
}

func newSoundDefinition(t Track) soundDefinition {
	return soundDefinition{
		UseLegacyMaxDistance: true,
		Category:             "record",
		MaxDistance:          64,
		Sounds: []soundFile{{
			LoadOnLowMemory: true,
			Name:            "sounds/music/game/records/" + t.Name,
			Stream:          true,
			Volume:          0.5,
		}},
	}
}

// MergeSoundDefinitions updates a resource-pack sound_definitions.json.
// record.* entries that are neither generated nor listed in keep are removed;
// missing entries for tracks are added. Existing entries are left untouched.
func MergeSoundDefinitions(data []byte, tracks []Track, keep []string) ([]byte, error) {
	doc := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("discgen: sound definitions: %w", err)
		}
	}
	if _, ok := doc["format_version"]; !ok {
		doc["format_version"] = "1.14.0"
	}
	defs, _ := doc["sound_definitions"].(map[string]any)
	if defs == nil {
		defs = map[string]any{}
	}

	wanted := lo.SliceToMap(tracks, func(t Track) (string, Track) { return t.Sound(), t })
	kept := lo.Keyify(keep)
	for key := range defs {
		if !strings.HasPrefix(key, "record.") {
			continue
		}
		_, gen := wanted[key]
		_, keepIt := kept[key]
		if !gen && !keepIt {
			delete(defs, key)
		}
	}
	for _, t := range tracks {
		if _, ok := defs[t.Sound()]; !ok {
			defs[t.Sound()] = newSoundDefinition(t)
		}
	}
	doc["sound_definitions"] = defs

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
