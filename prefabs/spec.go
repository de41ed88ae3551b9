package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

const (
	DiscsFile   = "discs.yaml"
	JukeboxFile = "jukebox.yaml"
	BlocksFile  = "blocks.yaml"
)

type DiscSpec struct {
	ID     string  `yaml:"id"`
	Title  string  `yaml:"title"`
	Artist string  `yaml:"artist"`
	Sound  string  `yaml:"sound"`
	Volume float64 `yaml:"volume"`
	Ticks  int     `yaml:"ticks"`
}

type DiscCatalogSpec struct {
	Discs []DiscSpec `yaml:"discs"`
}

func LoadDiscCatalogSpec() (DiscCatalogSpec, error) {
	return LoadSpec[DiscCatalogSpec](DiscsFile)
}

// BlockTypeSpec declares a block type. The first value of every state
// enumeration is its default.
type BlockTypeSpec struct {
	ID           string           `yaml:"id"`
	States       map[string][]any `yaml:"states"`
	Container    int              `yaml:"container"`
	Solid        bool             `yaml:"solid"`
	TickInterval int              `yaml:"tick_interval"`
	Components   []string         `yaml:"components"`
}

type BlockCatalogSpec struct {
	Blocks []BlockTypeSpec `yaml:"blocks"`
}

func LoadBlockCatalogSpec() (BlockCatalogSpec, error) {
	return LoadSpec[BlockCatalogSpec](BlocksFile)
}

type JukeboxSlotsSpec struct {
	Playing          string   `yaml:"playing"`
	Vanilla          []string `yaml:"vanilla"`
	Custom           []string `yaml:"custom"`
	VanillaNamespace string   `yaml:"vanilla_namespace"`
}

type HopperSpec struct {
	Type        string         `yaml:"type"`
	FacingState string         `yaml:"facing_state"`
	Facing      map[int]string `yaml:"facing"`
}

type PlaybackSpec struct {
	ReconcileInterval int     `yaml:"reconcile_interval"`
	ActiveRadius      float64 `yaml:"active_radius"`
	MessageRadius     float64 `yaml:"message_radius"`
	StopSoundRadius   float64 `yaml:"stop_sound_radius"`
	AmbientRadius     float64 `yaml:"ambient_radius"`
	AmbientMinDelay   int     `yaml:"ambient_min_delay"`
	AmbientMaxDelay   int     `yaml:"ambient_max_delay"`
	Particle          string  `yaml:"particle"`
	ParticleOffset    float64 `yaml:"particle_offset"`
	DropImpulse       float64 `yaml:"drop_impulse"`
	EjectLift         float64 `yaml:"eject_lift"`
	MessageFormat     string  `yaml:"message_format"`
}

type MigrationSpec struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Interval int    `yaml:"interval"`
}

type JukeboxSpec struct {
	Block     BlockTypeSpec    `yaml:"block"`
	Component string           `yaml:"component"`
	Slots     JukeboxSlotsSpec `yaml:"slots"`
	Hopper    HopperSpec       `yaml:"hopper"`
	Playback  PlaybackSpec     `yaml:"playback"`
	Migration MigrationSpec    `yaml:"migration"`
}

func LoadJukeboxSpec() (JukeboxSpec, error) {
	return LoadSpec[JukeboxSpec](JukeboxFile)
}
