package sim

import (
	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/host"
	"github.com/samber/lo"
)

// Journal event types.
const (
	EventPlaySound = "sound.play"
	EventStopSound = "sound.stop"
	EventActionBar = "actionbar"
	EventParticle  = "particle"
	EventItemSpawn = "item.spawn"
)

type SoundEvent struct {
	Tick      int
	Dimension string
	Sound     string
	At        host.Vec3
	Volume    float64
}

type StopSoundEvent struct {
	Tick   int
	Player string
	Sound  string
}

type ActionBarEvent struct {
	Tick    int
	Player  string
	Message string
}

type ParticleEvent struct {
	Tick      int
	Dimension string
	Effect    string
	At        host.Vec3
}

type ItemSpawnEvent struct {
	Tick      int
	Dimension string
	Stack     host.ItemStack
	At        host.Vec3
}

// Filter returns the events of one type from evts, keeping order.
func Filter(evts []ecs.Event, typ string) []ecs.Event {
	return lo.Filter(evts, func(e ecs.Event, _ int) bool { return e.Type == typ })
}
