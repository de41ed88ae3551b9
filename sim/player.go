package sim

import (
	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
	"github.com/milk9111/discbox/ecs/system"
	"github.com/milk9111/discbox/host"
)

const inventorySize = 36

// Player is an actor backed by an ECS entity. Once removed every method
// degrades to a no-op and IsValid reports false.
type Player struct {
	world  *World
	entity ecs.Entity
	id     string
}

func (p *Player) ID() string {
	return p.id
}

func (p *Player) IsValid() bool {
	return ecs.IsAlive(p.world.ecs, p.entity)
}

func (p *Player) state() (*component.Player, bool) {
	return ecs.Get(p.world.ecs, p.entity, component.PlayerComponent.Kind())
}

func (p *Player) inventory() (*component.Inventory, bool) {
	return ecs.Get(p.world.ecs, p.entity, component.InventoryComponent.Kind())
}

func (p *Player) Name() string {
	if st, ok := p.state(); ok {
		return st.Name
	}
	return ""
}

func (p *Player) GameMode() host.GameMode {
	if st, ok := p.state(); ok {
		return st.Mode
	}
	return host.GameModeSurvival
}

func (p *Player) SetGameMode(m host.GameMode) {
	if st, ok := p.state(); ok {
		st.Mode = m
	}
}

func (p *Player) HeldItem() (host.ItemStack, bool) {
	inv, ok := p.inventory()
	if !ok {
		return host.ItemStack{}, false
	}
	held := inv.Held()
	if held == nil {
		return host.ItemStack{}, false
	}
	return *held, true
}

func (p *Player) SetHeldItem(stack *host.ItemStack) {
	inv, ok := p.inventory()
	if !ok || inv.Selected < 0 || inv.Selected >= len(inv.Slots) {
		return
	}
	if stack == nil || stack.Amount <= 0 {
		inv.Slots[inv.Selected] = nil
		return
	}
	copied := *stack
	inv.Slots[inv.Selected] = &copied
}

// Give adds stack to the inventory, filling the held slot first.
func (p *Player) Give(stack host.ItemStack) bool {
	inv, ok := p.inventory()
	if !ok || stack.Amount <= 0 {
		return false
	}
	order := []int{inv.Selected}
	for i := range inv.Slots {
		if i != inv.Selected {
			order = append(order, i)
		}
	}
	for _, i := range order {
		s := inv.Slots[i]
		switch {
		case s == nil:
			copied := stack
			inv.Slots[i] = &copied
			return true
		case s.TypeID == stack.TypeID && s.Amount+stack.Amount <= MaxStack(stack.TypeID):
			s.Amount += stack.Amount
			return true
		}
	}
	return false
}

// Count totals typeID across the inventory.
func (p *Player) Count(typeID string) int {
	inv, ok := p.inventory()
	if !ok {
		return 0
	}
	n := 0
	for _, s := range inv.Slots {
		if s != nil && s.TypeID == typeID {
			n += s.Amount
		}
	}
	return n
}

func (p *Player) SetActionBar(message string) {
	st, ok := p.state()
	if !ok {
		return
	}
	st.ActionBar = message
	st.ActionBarTicks = system.ActionBarTicks
	p.world.record(EventActionBar, ActionBarEvent{Tick: p.world.Tick(), Player: p.id, Message: message})
}

func (p *Player) ActionBar() string {
	if st, ok := p.state(); ok {
		return st.ActionBar
	}
	return ""
}

func (p *Player) StopSound(soundID string) error {
	if !p.IsValid() {
		return host.ErrInvalidActor
	}
	system.Mute(p.world.ecs, p.id, soundID)
	p.world.record(EventStopSound, StopSoundEvent{Tick: p.world.Tick(), Player: p.id, Sound: soundID})
	return nil
}

// Hears reports whether soundID reached this player on the last update.
func (p *Player) Hears(soundID string) bool {
	st, ok := p.state()
	return ok && st.Hearing[soundID]
}

func (p *Player) Position() (string, host.Vec3) {
	t, ok := ecs.Get(p.world.ecs, p.entity, component.TransformComponent.Kind())
	if !ok {
		return "", host.Vec3{}
	}
	return t.Dimension, host.Vec3{X: t.X, Y: t.Y, Z: t.Z}
}

func (p *Player) Teleport(dimension string, at host.Vec3) {
	t, ok := ecs.Get(p.world.ecs, p.entity, component.TransformComponent.Kind())
	if !ok {
		return
	}
	p.world.Dimension(dimension)
	t.Dimension, t.X, t.Y, t.Z = dimension, at.X, at.Y, at.Z
}
