package system

import (
	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
)

// ActionBarTicks is how long an action bar message stays up.
const ActionBarTicks = 60

// HUDSystem expires player action bar messages.
type HUDSystem struct{}

func NewHUDSystem() *HUDSystem {
	return &HUDSystem{}
}

func (s *HUDSystem) Update(w *ecs.World) {
	ecs.ForEach(w, component.PlayerComponent.Kind(), func(_ ecs.Entity, p *component.Player) {
		if p.ActionBarTicks <= 0 {
			return
		}
		p.ActionBarTicks--
		if p.ActionBarTicks == 0 {
			p.ActionBar = ""
		}
	})
}
