package sim

import (
	"sort"

	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
	"github.com/milk9111/discbox/host"
)

const chunkShift = 4

type chunkKey struct {
	X, Z int
}

func chunkOf(loc host.Location) chunkKey {
	return chunkKey{X: loc.X >> chunkShift, Z: loc.Z >> chunkShift}
}

// Dimension is a sparse block grid. Locations without a cell are air. Whole
// chunks can be unloaded to simulate stale block references.
type Dimension struct {
	id       string
	world    *World
	cells    map[host.Location]*cell
	unloaded map[chunkKey]bool
}

func newDimension(w *World, id string) *Dimension {
	return &Dimension{
		id:       id,
		world:    w,
		cells:    make(map[host.Location]*cell),
		unloaded: make(map[chunkKey]bool),
	}
}

func (d *Dimension) ID() string {
	return d.id
}

func (d *Dimension) IsLoaded(loc host.Location) bool {
	return !d.unloaded[chunkOf(loc)]
}

// SetLoaded loads or unloads the chunk holding loc. Block state survives.
func (d *Dimension) SetLoaded(loc host.Location, loaded bool) {
	if loaded {
		delete(d.unloaded, chunkOf(loc))
		return
	}
	d.unloaded[chunkOf(loc)] = true
}

func (d *Dimension) Block(loc host.Location) (host.Block, error) {
	if !d.IsLoaded(loc) {
		return nil, host.ErrUnloaded
	}
	return &Block{dim: d, loc: loc}, nil
}

func (d *Dimension) cellAt(loc host.Location) *cell {
	if c, ok := d.cells[loc]; ok {
		return c
	}
	return &cell{perm: d.world.air.Default()}
}

func (d *Dimension) setPermutation(loc host.Location, p *Permutation) {
	old := d.cellAt(loc)
	if p.typ.ID == AirID {
		delete(d.cells, loc)
		return
	}
	next := &cell{perm: p}
	if old.perm.typ == p.typ {
		next.container = old.container
	} else if p.typ.Container > 0 {
		next.container = NewContainer(p.typ.Container)
	}
	d.cells[loc] = next
}

// Locations returns every non-air location in a stable order.
func (d *Dimension) Locations() []host.Location {
	out := make([]host.Location, 0, len(d.cells))
	for loc := range d.cells {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return out
}

func (d *Dimension) IsSolid(loc host.Location) bool {
	c, ok := d.cells[loc]
	return ok && c.perm.typ.Solid
}

// PlayersInRadius returns valid players of this dimension within radius of
// center, ordered by join order.
func (d *Dimension) PlayersInRadius(center host.Vec3, radius float64) []host.Actor {
	var out []host.Actor
	for _, p := range d.world.Players() {
		t, ok := ecs.Get(d.world.ecs, p.entity, component.TransformComponent.Kind())
		if !ok || t.Dimension != d.id {
			continue
		}
		if center.Distance(host.Vec3{X: t.X, Y: t.Y, Z: t.Z}) <= radius {
			out = append(out, p)
		}
	}
	return out
}

func (d *Dimension) PlaySound(soundID string, at host.Vec3, volume float64) error {
	w := d.world
	e := ecs.CreateEntity(w.ecs)
	_ = ecs.Add(w.ecs, e, component.TransformComponent.Kind(), &component.Transform{Dimension: d.id, X: at.X, Y: at.Y, Z: at.Z})
	_ = ecs.Add(w.ecs, e, component.SoundEmitterComponent.Kind(), &component.SoundEmitter{Sound: soundID, Volume: volume, Radius: w.cfg.SoundRadius})
	_ = ecs.Add(w.ecs, e, component.TTLComponent.Kind(), &component.TTL{Ticks: w.cfg.SoundTTL})
	w.record(EventPlaySound, SoundEvent{Tick: w.Tick(), Dimension: d.id, Sound: soundID, At: at, Volume: volume})
	return nil
}

func (d *Dimension) SpawnParticle(effectID string, at host.Vec3) error {
	w := d.world
	e := ecs.CreateEntity(w.ecs)
	_ = ecs.Add(w.ecs, e, component.TransformComponent.Kind(), &component.Transform{Dimension: d.id, X: at.X, Y: at.Y, Z: at.Z})
	_ = ecs.Add(w.ecs, e, component.ParticleComponent.Kind(), &component.Particle{Effect: effectID})
	_ = ecs.Add(w.ecs, e, component.TTLComponent.Kind(), &component.TTL{Ticks: w.cfg.ParticleTTL})
	w.record(EventParticle, ParticleEvent{Tick: w.Tick(), Dimension: d.id, Effect: effectID, At: at})
	return nil
}

func (d *Dimension) SpawnItem(stack host.ItemStack, at host.Vec3) (host.ItemEntity, error) {
	if !d.IsLoaded(host.Location{X: floor(at.X), Y: floor(at.Y), Z: floor(at.Z)}) {
		return nil, host.ErrUnloaded
	}
	w := d.world
	e := ecs.CreateEntity(w.ecs)
	_ = ecs.Add(w.ecs, e, component.TransformComponent.Kind(), &component.Transform{Dimension: d.id, X: at.X, Y: at.Y, Z: at.Z})
	_ = ecs.Add(w.ecs, e, component.ItemDropComponent.Kind(), &component.ItemDrop{Stack: stack})
	w.record(EventItemSpawn, ItemSpawnEvent{Tick: w.Tick(), Dimension: d.id, Stack: stack, At: at})
	return &ItemEntity{world: w, entity: e}, nil
}

// ItemEntity is a dropped item handle.
type ItemEntity struct {
	world  *World
	entity ecs.Entity
}

func (it *ItemEntity) ApplyImpulse(impulse host.Vec3) {
	drop, ok := ecs.Get(it.world.ecs, it.entity, component.ItemDropComponent.Kind())
	if !ok {
		return
	}
	drop.Impulse = drop.Impulse.Add(impulse)
}

func (it *ItemEntity) Stack() host.ItemStack {
	drop, ok := ecs.Get(it.world.ecs, it.entity, component.ItemDropComponent.Kind())
	if !ok {
		return host.ItemStack{}
	}
	return drop.Stack
}

func (it *ItemEntity) Entity() ecs.Entity {
	return it.entity
}
