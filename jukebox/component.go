package jukebox

import "github.com/milk9111/discbox/host"

// Register binds the controller's handlers to the jukebox custom component.
func (c *Controller) Register(reg host.ComponentRegistry) error {
	return reg.RegisterCustomComponent(c.cfg.ComponentID, host.BlockComponent{
		OnPlayerInteract: c.Interact,
		OnPlayerDestroy:  c.Break,
		OnTick:           c.Tick,
	})
}
