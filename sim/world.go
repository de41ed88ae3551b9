// Package sim is an in-process host for block add-ons: block grids with
// enumerated states, containers, players, sounds, particles, dropped items
// and a tick scheduler, all recorded into an event journal.
package sim

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
	"github.com/milk9111/discbox/ecs/system"
	"github.com/milk9111/discbox/host"
	"github.com/milk9111/discbox/prefabs"
	"github.com/samber/lo"
)

const DefaultDimension = "minecraft:overworld"

var (
	ErrUnknownBlock       = errors.New("sim: unknown block type")
	ErrDuplicateComponent = errors.New("sim: custom component already registered")
)

type Config struct {
	Blocks    []prefabs.BlockTypeSpec
	Migration prefabs.MigrationSpec
	// SoundRadius is how far a played sound carries.
	SoundRadius float64
	// SoundTTL and ParticleTTL bound how long emitters and particles live.
	SoundTTL    int
	ParticleTTL int
}

// DefaultConfig reads the block catalog plus the jukebox block and its item
// migration from prefabs.
func DefaultConfig() (Config, error) {
	blocks, err := prefabs.LoadBlockCatalogSpec()
	if err != nil {
		return Config{}, err
	}
	jb, err := prefabs.LoadJukeboxSpec()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Blocks:      append(blocks.Blocks, jb.Block),
		Migration:   jb.Migration,
		SoundRadius: 64,
		SoundTTL:    20 * 60 * 10,
		ParticleTTL: 20,
	}, nil
}

type World struct {
	cfg        Config
	ecs        *ecs.World
	systems    *ecs.Scheduler
	sched      *Scheduler
	types      map[string]*BlockType
	air        *BlockType
	dims       map[string]*Dimension
	players    []*Player
	components map[string]host.BlockComponent
	nextPlayer int
}

func New(cfg Config) (*World, error) {
	w := &World{
		cfg:        cfg,
		ecs:        ecs.NewWorld(),
		sched:      NewScheduler(),
		types:      make(map[string]*BlockType),
		dims:       make(map[string]*Dimension),
		components: make(map[string]host.BlockComponent),
	}
	if w.cfg.SoundRadius <= 0 {
		w.cfg.SoundRadius = 64
	}
	if w.cfg.SoundTTL <= 0 {
		w.cfg.SoundTTL = 20 * 60 * 10
	}
	if w.cfg.ParticleTTL <= 0 {
		w.cfg.ParticleTTL = 20
	}

	for _, spec := range cfg.Blocks {
		if spec.ID == "" {
			return nil, fmt.Errorf("sim: block type without id")
		}
		if _, dup := w.types[spec.ID]; dup {
			return nil, fmt.Errorf("sim: block type %s declared twice", spec.ID)
		}
		w.types[spec.ID] = blockTypeFromSpec(spec)
	}
	air, ok := w.types[AirID]
	if !ok {
		air = &BlockType{ID: AirID}
		w.types[AirID] = air
	}
	w.air = air

	w.systems = ecs.NewScheduler(
		system.NewItemPhysicsSystem(w.isSolid),
		system.NewSoundSystem(),
		system.NewHUDSystem(),
		system.NewTTLSystem(),
	)
	if cfg.Migration.From != "" && cfg.Migration.To != "" {
		w.systems.Add(system.NewItemMigrationSystem(cfg.Migration.From, cfg.Migration.To, cfg.Migration.Interval))
	}

	w.Dimension(DefaultDimension)
	return w, nil
}

// NewDefault builds a world from DefaultConfig.
func NewDefault() (*World, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

func (w *World) ECS() *ecs.World {
	return w.ecs
}

func (w *World) Scheduler() *Scheduler {
	return w.sched
}

func (w *World) Tick() int {
	return w.sched.Now()
}

// Dimension returns the named dimension, creating it on first use.
func (w *World) Dimension(id string) *Dimension {
	if d, ok := w.dims[id]; ok {
		return d
	}
	d := newDimension(w, id)
	w.dims[id] = d
	return d
}

func (w *World) BlockType(id string) (*BlockType, bool) {
	t, ok := w.types[id]
	return t, ok
}

// Permutation builds a permutation of typeID from its defaults and states.
func (w *World) Permutation(typeID string, states map[string]any) (*Permutation, error) {
	t, ok := w.types[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, typeID)
	}
	var p host.Permutation = t.Default()
	for name, v := range states {
		next, err := p.WithState(name, v)
		if err != nil {
			return nil, err
		}
		p = next
	}
	return p.(*Permutation), nil
}

// Place sets the block at loc, replacing whatever was there.
func (w *World) Place(dim string, loc host.Location, typeID string, states map[string]any) (*Block, error) {
	p, err := w.Permutation(typeID, states)
	if err != nil {
		return nil, err
	}
	d := w.Dimension(dim)
	if !d.IsLoaded(loc) {
		return nil, host.ErrUnloaded
	}
	d.setPermutation(loc, p)
	return &Block{dim: d, loc: loc}, nil
}

func (w *World) BlockAt(dim string, loc host.Location) (*Block, error) {
	d := w.Dimension(dim)
	if !d.IsLoaded(loc) {
		return nil, host.ErrUnloaded
	}
	return &Block{dim: d, loc: loc}, nil
}

func (w *World) ContainerAt(dim string, loc host.Location) (*Container, error) {
	b, err := w.BlockAt(dim, loc)
	if err != nil {
		return nil, err
	}
	c, err := b.Container()
	if err != nil {
		return nil, err
	}
	return c.(*Container), nil
}

func (w *World) AddPlayer(name, dim string, at host.Vec3, mode host.GameMode) *Player {
	w.nextPlayer++
	id := fmt.Sprintf("player-%d", w.nextPlayer)
	w.Dimension(dim)

	e := ecs.CreateEntity(w.ecs)
	_ = ecs.Add(w.ecs, e, component.PlayerComponent.Kind(), &component.Player{ID: id, Name: name, Mode: mode, Hearing: map[string]bool{}})
	_ = ecs.Add(w.ecs, e, component.TransformComponent.Kind(), &component.Transform{Dimension: dim, X: at.X, Y: at.Y, Z: at.Z})
	_ = ecs.Add(w.ecs, e, component.InventoryComponent.Kind(), &component.Inventory{Slots: make([]*host.ItemStack, inventorySize)})

	p := &Player{world: w, entity: e, id: id}
	w.players = append(w.players, p)
	return p
}

func (w *World) RemovePlayer(p *Player) {
	if p == nil {
		return
	}
	ecs.DestroyEntity(w.ecs, p.entity)
}

// Players returns the players still in the world, in join order.
func (w *World) Players() []*Player {
	live := w.players[:0]
	for _, p := range w.players {
		if p.IsValid() {
			live = append(live, p)
		}
	}
	w.players = live
	return append([]*Player(nil), live...)
}

func (w *World) RegisterCustomComponent(id string, c host.BlockComponent) error {
	if id == "" {
		return fmt.Errorf("sim: empty component id")
	}
	if _, dup := w.components[id]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateComponent, id)
	}
	w.components[id] = c
	return nil
}

func (w *World) componentsOf(t *BlockType) []host.BlockComponent {
	var out []host.BlockComponent
	for _, id := range t.Components {
		if c, ok := w.components[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Interact has p use the block at loc.
func (w *World) Interact(p *Player, loc host.Location) error {
	dim, _ := p.Position()
	b, err := w.BlockAt(dim, loc)
	if err != nil {
		return err
	}
	d := w.Dimension(dim)
	for _, c := range w.componentsOf(b.perm().typ) {
		if c.OnPlayerInteract != nil {
			c.OnPlayerInteract(host.InteractEvent{Block: b, Dimension: d, Player: p})
		}
	}
	return nil
}

// Destroy has p break the block at loc. Handlers see the block already
// replaced by air plus the permutation it had.
func (w *World) Destroy(p *Player, loc host.Location) error {
	dim, _ := p.Position()
	b, err := w.BlockAt(dim, loc)
	if err != nil {
		return err
	}
	d := w.Dimension(dim)
	snapshot := b.perm()
	if c := d.cellAt(loc).container; c != nil {
		for _, stack := range c.Items() {
			_, _ = d.SpawnItem(stack, loc.Center())
		}
	}
	d.setPermutation(loc, w.air.Default())

	for _, c := range w.componentsOf(snapshot.typ) {
		if c.OnPlayerDestroy != nil {
			c.OnPlayerDestroy(host.DestroyEvent{Block: b, Dimension: d, Player: p, DestroyedPermutation: snapshot})
		}
	}
	return nil
}

// Step advances the world one tick: block ticks, then scheduled callbacks,
// then the entity systems. State changed by a callback is seen by block ticks
// on the following tick.
func (w *World) Step() {
	w.sched.advance()
	w.tickBlocks()
	w.sched.runDue()
	w.systems.Update(w.ecs)
}

func (w *World) Run(ticks int) {
	for i := 0; i < ticks; i++ {
		w.Step()
	}
}

func (w *World) tickBlocks() {
	now := w.Tick()
	ids := lo.Keys(w.dims)
	sort.Strings(ids)
	for _, id := range ids {
		d := w.dims[id]
		for _, loc := range d.Locations() {
			if !d.IsLoaded(loc) {
				continue
			}
			c, ok := d.cells[loc]
			if !ok {
				continue
			}
			t := c.perm.typ
			if t.TickInterval <= 0 || now%t.TickInterval != 0 {
				continue
			}
			for _, comp := range w.componentsOf(t) {
				if comp.OnTick != nil {
					comp.OnTick(host.TickEvent{Block: &Block{dim: d, loc: loc}, Dimension: d})
				}
			}
		}
	}
}

// Restart simulates reloading the scripting layer: pending scheduled tasks
// and registered components are dropped while blocks, players and entities
// survive.
func (w *World) Restart() {
	pending := w.sched.Pending()
	w.sched.Reset()
	clear(w.components)
	log.Printf("sim: restart at tick %d, dropped %d scheduled tasks", w.Tick(), pending)
}

func (w *World) record(typ string, data any) {
	w.ecs.Events().Push(ecs.Event{Type: typ, Data: data})
}

// Journal drains the recorded events.
func (w *World) Journal() []ecs.Event {
	return w.ecs.Events().Drain()
}

// PeekJournal returns the recorded events without consuming them.
func (w *World) PeekJournal() []ecs.Event {
	return w.ecs.Events().Peek()
}

// Drop is a dropped item as seen from outside the ECS.
type Drop struct {
	Dimension string
	Stack     host.ItemStack
	At        host.Vec3
}

func (w *World) Drops() []Drop {
	var out []Drop
	ecs.ForEach2(w.ecs, component.ItemDropComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, d *component.ItemDrop, t *component.Transform) {
		out = append(out, Drop{Dimension: t.Dimension, Stack: d.Stack, At: host.Vec3{X: t.X, Y: t.Y, Z: t.Z}})
	})
	return out
}

// Collect moves every dropped item within radius of p into p's inventory.
// It returns the number of stacks picked up.
func (w *World) Collect(p *Player, radius float64) int {
	dim, at := p.Position()
	n := 0
	ecs.ForEach2(w.ecs, component.ItemDropComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, d *component.ItemDrop, t *component.Transform) {
		if t.Dimension != dim || at.Distance(host.Vec3{X: t.X, Y: t.Y, Z: t.Z}) > radius {
			return
		}
		if p.Give(d.Stack) {
			ecs.DestroyEntity(w.ecs, e)
			n++
		}
	})
	return n
}

func (w *World) isSolid(dim string, x, y, z int) bool {
	d, ok := w.dims[dim]
	return ok && d.IsSolid(host.Location{X: x, Y: y, Z: z})
}

func floor(v float64) int {
	return int(math.Floor(v))
}
