// Package jukebox drives the custom jukebox block: disc insertion and
// ejection, timed playback, hopper feeding and collection, and the note
// particles shown while a record plays.
package jukebox

import (
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/milk9111/discbox/common"
	"github.com/milk9111/discbox/discs"
	"github.com/milk9111/discbox/host"
)

// Catalog resolves disc item identifiers.
type Catalog interface {
	Lookup(id string) (discs.Definition, bool)
}

// run is one playback of one disc in one jukebox. Every exit path goes
// through endRun, which clears the run's scheduled tasks.
type run struct {
	id    string
	key   Key
	block host.Block
	dim   host.Dimension
	disc  discs.Definition

	reconcile host.Handle
	stop      host.Handle
	ambient   host.Handle

	interrupted bool
	ended       bool
}

type Controller struct {
	cfg      Config
	catalog  Catalog
	codec    *Codec
	hoppers  Hoppers
	sched    host.Scheduler
	registry *Registry
	rand     *rand.Rand
}

type Option func(*Controller)

// WithRand fixes the source used for drop impulses and ambient delays.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		c.rand = r
	}
}

func NewController(cfg Config, catalog Catalog, sched host.Scheduler, registry *Registry, opts ...Option) *Controller {
	if registry == nil {
		registry = NewRegistry()
	}
	c := &Controller{
		cfg:      cfg,
		catalog:  catalog,
		codec:    NewCodec(cfg),
		hoppers:  NewHoppers(cfg),
		sched:    sched,
		registry: registry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Codec() *Codec {
	return c.codec
}

func (c *Controller) Registry() *Registry {
	return c.registry
}

func (c *Controller) Config() Config {
	return c.cfg
}

// Interact loads the held disc into an empty jukebox, or ejects the loaded
// disc.
func (c *Controller) Interact(e host.InteractEvent) {
	perm := e.Block.Permutation()
	if perm == nil || perm.TypeID() != c.cfg.BlockID {
		return
	}

	contents := c.codec.Decode(perm)
	if contents.Loaded() {
		c.eject(e.Block, e.Dimension, perm, contents)
		return
	}

	if e.Player == nil || !e.Player.IsValid() {
		return
	}
	held, ok := e.Player.HeldItem()
	if !ok {
		return
	}
	def, ok := c.catalog.Lookup(held.TypeID)
	if !ok {
		return
	}
	if !c.codec.Accepts(def.ID) {
		log.Printf("jukebox: %s has no slot on %s, not inserting", def.ID, c.cfg.BlockID)
		return
	}
	if !c.play(e.Block, e.Dimension, def) {
		return
	}
	if e.Player.GameMode() != host.GameModeCreative {
		consumeOne(e.Player, held)
	}
}

func consumeOne(p host.Actor, held host.ItemStack) {
	if held.Amount > 1 {
		p.SetHeldItem(&host.ItemStack{TypeID: held.TypeID, Amount: held.Amount - 1})
		return
	}
	p.SetHeldItem(nil)
}

// eject drops the loaded disc and empties the block. When the drop cannot
// be spawned the disc stays loaded, idle, for the next attempt.
func (c *Controller) eject(b host.Block, dim host.Dimension, perm host.Permutation, contents Contents) {
	key := KeyOf(b)
	sound := c.soundOf(key, contents.Disc)
	if err := b.SetPermutation(c.codec.Clear(perm)); err != nil {
		return
	}
	c.endKey(key, "ejected")

	center := b.Location().Center()
	if err := c.drop(dim, center.Add(host.Vec3{Y: c.cfg.EjectLift}), contents.Disc); err != nil {
		log.Printf("jukebox: %s: drop %s: %v, keeping it loaded", key, contents.Disc, err)
		_ = b.SetPermutation(c.codec.SetPlaying(perm, false))
	}
	if sound != "" {
		c.stopSound(dim, center, sound)
	}
}

// Break drops the disc held by a destroyed jukebox.
func (c *Controller) Break(e host.DestroyEvent) {
	perm := e.DestroyedPermutation
	if perm == nil || perm.TypeID() != c.cfg.BlockID {
		return
	}
	key := KeyOf(e.Block)
	contents := c.codec.Decode(perm)
	sound := c.soundOf(key, contents.Disc)
	c.endKey(key, "destroyed")
	if !contents.Loaded() {
		return
	}

	center := e.Block.Location().Center()
	if err := c.drop(e.Dimension, center, contents.Disc); err != nil {
		log.Printf("jukebox: %s: drop %s: %v, disc lost", key, contents.Disc, err)
	}
	if sound != "" {
		c.stopSound(e.Dimension, center, sound)
	}
}

// soundOf returns the sound playing for disc. A live run keeps the
// definition it started with, so a catalog reload cannot lose its sound.
func (c *Controller) soundOf(key Key, disc string) string {
	if r := c.registry.get(key); r != nil && r.disc.ID == disc {
		return r.disc.Sound
	}
	if def, ok := c.catalog.Lookup(disc); ok {
		return def.Sound
	}
	return ""
}

// Tick reconciles a jukebox with its surroundings: recovers a playing flag
// left without a run, hands a finished disc to the output hopper, or pulls a
// disc from a feeder hopper.
func (c *Controller) Tick(e host.TickEvent) {
	b := e.Block
	perm := b.Permutation()
	if perm == nil || perm.TypeID() != c.cfg.BlockID {
		return
	}
	center := b.Location().Center()
	if len(e.Dimension.PlayersInRadius(center, c.cfg.ActiveRadius)) == 0 {
		return
	}

	key := KeyOf(b)
	contents := c.codec.Decode(perm)
	switch {
	case contents.Playing && !c.registry.Has(key):
		c.recoverOrphan(b, e.Dimension, perm, contents)
	case contents.Playing:
		// the live run owns the block
	case contents.Loaded():
		c.collect(b, perm, contents)
	default:
		c.feed(b, e.Dimension)
	}
}

func (c *Controller) recoverOrphan(b host.Block, dim host.Dimension, perm host.Permutation, contents Contents) {
	if err := b.SetPermutation(c.codec.SetPlaying(perm, false)); err != nil {
		return
	}
	log.Printf("jukebox: %s: playing flag without a run, stopping %q", KeyOf(b), contents.Disc)
	if def, ok := c.catalog.Lookup(contents.Disc); ok {
		c.stopSound(dim, b.Location().Center(), def.Sound)
	}
}

// collect moves a finished disc into the output hopper. The block is
// cleared first and restored when the hopper refuses the disc.
func (c *Controller) collect(b host.Block, perm host.Permutation, contents Contents) {
	out, ok := c.hoppers.FindOutputContainer(b)
	if !ok || out.EmptySlotsCount() == 0 {
		return
	}
	if err := b.SetPermutation(c.codec.Clear(perm)); err != nil {
		return
	}
	if _, left := out.AddItem(host.ItemStack{TypeID: contents.Disc, Amount: 1}); left {
		_ = b.SetPermutation(perm)
	}
}

func (c *Controller) feed(b host.Block, dim host.Dimension) {
	for _, feeder := range c.hoppers.FindFeederContainers(b, dim) {
		for slot := 0; slot < feeder.Size(); slot++ {
			item, ok := feeder.Item(slot)
			if !ok {
				continue
			}
			def, ok := c.catalog.Lookup(item.TypeID)
			if !ok || !c.codec.Accepts(def.ID) {
				continue
			}
			if !c.play(b, dim, def) {
				return
			}
			if item.Amount > 1 {
				feeder.SetItem(slot, &host.ItemStack{TypeID: item.TypeID, Amount: item.Amount - 1})
			} else {
				feeder.SetItem(slot, nil)
			}
			return
		}
	}
}

// play writes def into the block and starts its run. It reports false when
// the block could not be updated.
func (c *Controller) play(b host.Block, dim host.Dimension, def discs.Definition) bool {
	perm := b.Permutation()
	if perm == nil {
		return false
	}
	next, ok := c.codec.WriteLoadedDisc(perm, def.ID)
	if !ok {
		return false
	}
	if err := b.SetPermutation(next); err != nil {
		return false
	}

	key := KeyOf(b)
	c.endKey(key, "replaced")
	r := &run{id: uuid.NewString(), key: key, block: b, dim: dim, disc: def}
	c.registry.put(r)

	center := b.Location().Center()
	_ = dim.PlaySound(def.Sound, center, def.Volume)
	msg := fmt.Sprintf(c.cfg.MessageFormat, def.Title, def.Artist)
	for _, p := range dim.PlayersInRadius(center, c.cfg.MessageRadius) {
		if p.IsValid() {
			p.SetActionBar(msg)
		}
	}

	r.reconcile = c.sched.RunInterval(func() { c.reconcile(r) }, c.cfg.ReconcileInterval)
	r.stop = c.sched.RunTimeout(func() { c.finish(r) }, def.Ticks)
	c.ambientTick(r)

	log.Printf("jukebox: run %s: %s playing %s for %d ticks", r.id, key, def.ID, def.Ticks)
	return true
}

// reconcile checks the block still belongs to the run. Unloaded blocks are
// skipped until they come back.
func (c *Controller) reconcile(r *run) {
	if r.ended {
		return
	}
	perm := r.block.Permutation()
	if perm == nil {
		return
	}
	if c.matches(r, perm) {
		return
	}
	r.interrupted = true
	log.Printf("jukebox: run %s: %s changed under the run, interrupting", r.id, r.key)
	c.endRun(r)
}

// finish ends a run after the disc's full length. Only the playing flag is
// cleared; the disc stays for the output hopper.
func (c *Controller) finish(r *run) {
	if r.interrupted || r.ended {
		return
	}
	perm := r.block.Permutation()
	if perm == nil || !c.matches(r, perm) {
		c.endRun(r)
		return
	}
	if err := r.block.SetPermutation(c.codec.SetPlaying(perm, false)); err != nil {
		c.endRun(r)
		return
	}
	c.endRun(r)
	c.stopSound(r.dim, r.key.Location.Center(), r.disc.Sound)
	log.Printf("jukebox: run %s: finished %s", r.id, r.disc.ID)
}

func (c *Controller) matches(r *run, perm host.Permutation) bool {
	if perm.TypeID() != c.cfg.BlockID {
		return false
	}
	disc, ok := c.codec.ReadLoadedDisc(perm)
	return ok && disc == r.disc.ID
}

func (c *Controller) endKey(key Key, reason string) {
	if r := c.registry.get(key); r != nil {
		if reason != "" {
			log.Printf("jukebox: run %s: %s", r.id, reason)
		}
		c.endRun(r)
	}
}

func (c *Controller) endRun(r *run) {
	if r.ended {
		return
	}
	r.ended = true
	c.sched.ClearRun(r.reconcile)
	c.sched.ClearRun(r.stop)
	c.sched.ClearRun(r.ambient)
	c.registry.remove(r)
}

func (c *Controller) stopSound(dim host.Dimension, center host.Vec3, sound string) {
	for _, p := range dim.PlayersInRadius(center, c.cfg.StopSoundRadius) {
		if !p.IsValid() {
			continue
		}
		_ = p.StopSound(sound)
	}
}

func (c *Controller) drop(dim host.Dimension, at host.Vec3, id string) error {
	item, err := dim.SpawnItem(host.ItemStack{TypeID: id, Amount: 1}, at)
	if err != nil {
		return err
	}
	i := c.cfg.DropImpulse
	item.ApplyImpulse(host.Vec3{
		X: common.RandomRange(c.rand, -i, i),
		Y: i,
		Z: common.RandomRange(c.rand, -i, i),
	})
	return nil
}
