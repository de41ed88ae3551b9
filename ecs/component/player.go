package component

import "github.com/milk9111/discbox/host"

type Player struct {
	ID   string
	Name string
	Mode host.GameMode
	// ActionBar is the last message shown; ActionBarTicks counts down its
	// remaining display time.
	ActionBar      string
	ActionBarTicks int
	// Hearing lists sounds currently audible to this player.
	Hearing map[string]bool
}

var PlayerComponent = NewComponent[Player]()

// Inventory holds item stacks by slot; Selected is the hotbar slot the
// player holds in their main hand.
type Inventory struct {
	Slots    []*host.ItemStack
	Selected int
}

func (inv *Inventory) Held() *host.ItemStack {
	if inv == nil || inv.Selected < 0 || inv.Selected >= len(inv.Slots) {
		return nil
	}
	return inv.Slots[inv.Selected]
}

var InventoryComponent = NewComponent[Inventory]()
