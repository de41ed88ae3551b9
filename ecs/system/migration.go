package system

import (
	"log"

	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
)

// ItemMigrationSystem replaces one item type with another in every player
// inventory, checking every Interval ticks.
type ItemMigrationSystem struct {
	From     string
	To       string
	Interval int

	tick int
}

func NewItemMigrationSystem(from, to string, interval int) *ItemMigrationSystem {
	if interval <= 0 {
		interval = 1
	}
	return &ItemMigrationSystem{From: from, To: to, Interval: interval}
}

func (s *ItemMigrationSystem) Update(w *ecs.World) {
	if w == nil || s.From == "" || s.To == "" {
		return
	}
	s.tick++
	if s.tick%s.Interval != 0 {
		return
	}

	ecs.ForEach2(w, component.PlayerComponent.Kind(), component.InventoryComponent.Kind(), func(_ ecs.Entity, p *component.Player, inv *component.Inventory) {
		for i, stack := range inv.Slots {
			if stack == nil || stack.TypeID != s.From {
				continue
			}
			inv.Slots[i].TypeID = s.To
			log.Printf("migration: %s slot %d: %s -> %s x%d", p.Name, i, s.From, s.To, stack.Amount)
		}
	})
}
