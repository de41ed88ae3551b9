package jukebox

import (
	"github.com/milk9111/discbox/common"
	"github.com/milk9111/discbox/host"
)

// ambientTick emits one note particle when someone is near, then schedules
// itself again after a random delay. The chain stops once the run ends or
// the block no longer shows the run's disc playing. An unloaded block skips
// the emission but keeps the chain alive.
func (c *Controller) ambientTick(r *run) {
	if r.ended {
		return
	}
	if perm := r.block.Permutation(); perm != nil {
		if !c.matches(r, perm) || !c.codec.IsPlaying(perm) {
			return
		}
		center := r.key.Location.Center()
		if len(r.dim.PlayersInRadius(center, c.cfg.AmbientRadius)) > 0 {
			_ = r.dim.SpawnParticle(c.cfg.Particle, center.Add(host.Vec3{Y: c.cfg.ParticleOffset}))
		}
	}
	delay := common.RandomInt(c.rand, c.cfg.AmbientMinDelay, c.cfg.AmbientMaxDelay)
	r.ambient = c.sched.RunTimeout(func() { c.ambientTick(r) }, delay)
}
