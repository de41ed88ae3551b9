package system

import (
	"math"

	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
)

// SoundSystem recomputes which sounds each player can hear from the live
// emitters around them.
type SoundSystem struct{}

func NewSoundSystem() *SoundSystem {
	return &SoundSystem{}
}

func (s *SoundSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach2(w, component.PlayerComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, p *component.Player, _ *component.Transform) {
		clear(p.Hearing)
	})

	ecs.ForEach2(w, component.SoundEmitterComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, em *component.SoundEmitter, at *component.Transform) {
		ecs.ForEach2(w, component.PlayerComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, p *component.Player, pt *component.Transform) {
			if pt.Dimension != at.Dimension || em.Muted[p.ID] {
				return
			}
			if distance(at, pt) > em.Radius {
				return
			}
			if p.Hearing == nil {
				p.Hearing = make(map[string]bool)
			}
			p.Hearing[em.Sound] = true
		})
	})
}

// Mute stops sound for one player on every emitter currently playing it.
func Mute(w *ecs.World, playerID, sound string) int {
	n := 0
	ecs.ForEach(w, component.SoundEmitterComponent.Kind(), func(_ ecs.Entity, em *component.SoundEmitter) {
		if em.Sound != sound {
			return
		}
		if em.Muted == nil {
			em.Muted = make(map[string]bool)
		}
		em.Muted[playerID] = true
		n++
	})
	ecs.ForEach(w, component.PlayerComponent.Kind(), func(_ ecs.Entity, p *component.Player) {
		if p.ID == playerID {
			delete(p.Hearing, sound)
		}
	})
	return n
}

func distance(a, b *component.Transform) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
