package sim

import (
	"strings"

	"github.com/milk9111/discbox/host"
)

const defaultMaxStack = 64

// MaxStack is the largest stack size of an item type. Music discs do not
// stack.
func MaxStack(typeID string) int {
	if strings.Contains(typeID, "music_disc") {
		return 1
	}
	return defaultMaxStack
}

// Container is a fixed-size slot inventory.
type Container struct {
	slots []*host.ItemStack
}

func NewContainer(size int) *Container {
	return &Container{slots: make([]*host.ItemStack, size)}
}

func (c *Container) Size() int {
	return len(c.slots)
}

func (c *Container) EmptySlotsCount() int {
	n := 0
	for _, s := range c.slots {
		if s == nil {
			n++
		}
	}
	return n
}

func (c *Container) Item(slot int) (host.ItemStack, bool) {
	if slot < 0 || slot >= len(c.slots) || c.slots[slot] == nil {
		return host.ItemStack{}, false
	}
	return *c.slots[slot], true
}

// SetItem replaces a slot. A nil or empty stack clears it.
func (c *Container) SetItem(slot int, stack *host.ItemStack) {
	if slot < 0 || slot >= len(c.slots) {
		return
	}
	if stack == nil || stack.Amount <= 0 || stack.TypeID == "" {
		c.slots[slot] = nil
		return
	}
	copied := *stack
	c.slots[slot] = &copied
}

// AddItem merges into matching stacks first, then fills empty slots in
// order. It returns the remainder and whether anything is left over.
func (c *Container) AddItem(stack host.ItemStack) (host.ItemStack, bool) {
	if stack.Amount <= 0 {
		return host.ItemStack{}, false
	}
	max := MaxStack(stack.TypeID)
	for _, s := range c.slots {
		if stack.Amount == 0 {
			break
		}
		if s == nil || s.TypeID != stack.TypeID || s.Amount >= max {
			continue
		}
		n := min(max-s.Amount, stack.Amount)
		s.Amount += n
		stack.Amount -= n
	}
	for i, s := range c.slots {
		if stack.Amount == 0 {
			break
		}
		if s != nil {
			continue
		}
		n := min(max, stack.Amount)
		c.slots[i] = &host.ItemStack{TypeID: stack.TypeID, Amount: n}
		stack.Amount -= n
	}
	if stack.Amount == 0 {
		return host.ItemStack{}, false
	}
	return stack, true
}

// Count totals the amount of typeID across all slots.
func (c *Container) Count(typeID string) int {
	n := 0
	for _, s := range c.slots {
		if s != nil && s.TypeID == typeID {
			n += s.Amount
		}
	}
	return n
}

// Items returns copies of the non-empty slots.
func (c *Container) Items() []host.ItemStack {
	var out []host.ItemStack
	for _, s := range c.slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}
