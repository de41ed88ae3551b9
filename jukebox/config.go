package jukebox

import (
	"fmt"

	"github.com/milk9111/discbox/prefabs"
)

// Config carries the jukebox block layout and playback tuning. Durations are
// host ticks, radii are blocks.
type Config struct {
	BlockID     string
	ComponentID string

	PlayingState     string
	VanillaSlots     []string
	CustomSlots      []string
	VanillaNamespace string
	// SlotValues lists the values each slot state accepts, "none" included.
	SlotValues map[string][]string

	HopperType  string
	FacingState string
	Facing      map[int]Direction

	ReconcileInterval int
	ActiveRadius      float64
	MessageRadius     float64
	StopSoundRadius   float64
	AmbientRadius     float64
	AmbientMinDelay   int
	AmbientMaxDelay   int
	Particle          string
	ParticleOffset    float64
	DropImpulse       float64
	EjectLift         float64
	MessageFormat     string
}

// DefaultConfig returns the tuning of the shipped jukebox. Slot enumerations
// are empty; use LoadConfig for a complete block layout.
func DefaultConfig() Config {
	return Config{
		BlockID:           "my_music_disc:jukebox",
		ComponentID:       "my_music_disc:jukebox",
		PlayingState:      "my_music_disc:playing_disc",
		VanillaNamespace:  "minecraft:",
		HopperType:        "minecraft:hopper",
		FacingState:       "facing_direction",
		Facing:            map[int]Direction{0: Up, 3: North, 2: South, 4: East, 5: West},
		ReconcileInterval: 10,
		ActiveRadius:      40,
		MessageRadius:     20,
		StopSoundRadius:   100,
		AmbientRadius:     30,
		AmbientMinDelay:   10,
		AmbientMaxDelay:   20,
		Particle:          "minecraft:note_particle",
		ParticleOffset:    0.6,
		DropImpulse:       0.2,
		EjectLift:         0.5,
		MessageFormat:     "§dNow Playing: %s - %s",
	}
}

func LoadConfig() (Config, error) {
	spec, err := prefabs.LoadJukeboxSpec()
	if err != nil {
		return Config{}, err
	}
	return ConfigFromSpec(spec)
}

// ConfigFromSpec converts the jukebox prefab. Zero tuning values fall back
// to DefaultConfig.
func ConfigFromSpec(s prefabs.JukeboxSpec) (Config, error) {
	cfg := DefaultConfig()
	setString(&cfg.BlockID, s.Block.ID)
	setString(&cfg.ComponentID, s.Component)
	setString(&cfg.PlayingState, s.Slots.Playing)
	setString(&cfg.VanillaNamespace, s.Slots.VanillaNamespace)
	setString(&cfg.HopperType, s.Hopper.Type)
	setString(&cfg.FacingState, s.Hopper.FacingState)
	cfg.VanillaSlots = append([]string(nil), s.Slots.Vanilla...)
	cfg.CustomSlots = append([]string(nil), s.Slots.Custom...)

	if len(s.Hopper.Facing) > 0 {
		cfg.Facing = make(map[int]Direction, len(s.Hopper.Facing))
		for code, name := range s.Hopper.Facing {
			dir, err := ParseDirection(name)
			if err != nil {
				return Config{}, fmt.Errorf("jukebox: facing %d: %w", code, err)
			}
			cfg.Facing[code] = dir
		}
	}

	cfg.SlotValues = make(map[string][]string)
	for _, slot := range append(append([]string(nil), cfg.VanillaSlots...), cfg.CustomSlots...) {
		enum, ok := s.Block.States[slot]
		if !ok {
			return Config{}, fmt.Errorf("jukebox: slot %s is not a state of %s", slot, cfg.BlockID)
		}
		values := make([]string, 0, len(enum))
		for _, v := range enum {
			str, ok := v.(string)
			if !ok {
				return Config{}, fmt.Errorf("jukebox: slot %s has non-string value %v", slot, v)
			}
			values = append(values, str)
		}
		cfg.SlotValues[slot] = values
	}
	if _, ok := s.Block.States[cfg.PlayingState]; !ok {
		return Config{}, fmt.Errorf("jukebox: playing state %s is not a state of %s", cfg.PlayingState, cfg.BlockID)
	}

	p := s.Playback
	setInt(&cfg.ReconcileInterval, p.ReconcileInterval)
	setFloat(&cfg.ActiveRadius, p.ActiveRadius)
	setFloat(&cfg.MessageRadius, p.MessageRadius)
	setFloat(&cfg.StopSoundRadius, p.StopSoundRadius)
	setFloat(&cfg.AmbientRadius, p.AmbientRadius)
	setInt(&cfg.AmbientMinDelay, p.AmbientMinDelay)
	setInt(&cfg.AmbientMaxDelay, p.AmbientMaxDelay)
	setString(&cfg.Particle, p.Particle)
	setFloat(&cfg.ParticleOffset, p.ParticleOffset)
	setFloat(&cfg.DropImpulse, p.DropImpulse)
	setFloat(&cfg.EjectLift, p.EjectLift)
	setString(&cfg.MessageFormat, p.MessageFormat)

	if cfg.AmbientMaxDelay < cfg.AmbientMinDelay {
		return Config{}, fmt.Errorf("jukebox: ambient delay %d..%d is empty", cfg.AmbientMinDelay, cfg.AmbientMaxDelay)
	}
	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
