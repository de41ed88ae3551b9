package system

import (
	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
)

// TTLSystem counts down TTL components and destroys entities when they
// reach zero.
type TTLSystem struct{}

func NewTTLSystem() *TTLSystem {
	return &TTLSystem{}
}

func (s *TTLSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.TTLComponent.Kind(), func(e ecs.Entity, ttl *component.TTL) {
		if ttl.Ticks > 1 {
			ttl.Ticks--
			return
		}
		ecs.DestroyEntity(w, e)
	})
}
