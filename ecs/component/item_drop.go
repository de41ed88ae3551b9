package component

import "github.com/milk9111/discbox/host"

// ItemDrop is a dropped item stack lying in the world. Impulse is applied
// to the physics body on the next physics step and then zeroed.
type ItemDrop struct {
	Stack   host.ItemStack
	Impulse host.Vec3
}

var ItemDropComponent = NewComponent[ItemDrop]()
