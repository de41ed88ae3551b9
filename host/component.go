package host

// InteractEvent fires when a player uses a block.
type InteractEvent struct {
	Block     Block
	Dimension Dimension
	Player    Actor
}

// DestroyEvent fires after a player broke a block. Block already reflects
// the replacement; DestroyedPermutation is the snapshot taken before removal.
type DestroyEvent struct {
	Block                Block
	Dimension            Dimension
	Player               Actor
	DestroyedPermutation Permutation
}

type TickEvent struct {
	Block     Block
	Dimension Dimension
}

// BlockComponent bundles the custom-component callbacks of a block type.
// Nil callbacks are skipped.
type BlockComponent struct {
	OnPlayerInteract func(InteractEvent)
	OnPlayerDestroy  func(DestroyEvent)
	OnTick           func(TickEvent)
}

type ComponentRegistry interface {
	RegisterCustomComponent(id string, c BlockComponent) error
}
