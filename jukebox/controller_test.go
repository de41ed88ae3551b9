package jukebox

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/milk9111/discbox/discs"
	"github.com/milk9111/discbox/host"
	"github.com/milk9111/discbox/sim"
)

const (
	disc13  = "minecraft:music_disc_13"
	discCat = "minecraft:music_disc_cat"
	discFar = "minecraft:music_disc_far"
)

var origin = host.Location{X: 0, Y: 64, Z: 0}

type fixture struct {
	t       *testing.T
	world   *sim.World
	cfg     Config
	catalog *discs.Catalog
	lookup  Catalog
	ctrl    *Controller
	player  *sim.Player
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w, err := sim.NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := discs.Load()
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{t: t, world: w, cfg: cfg, catalog: catalog, lookup: catalog}
	f.start()
	for x := -8; x <= 8; x++ {
		for z := -8; z <= 8; z++ {
			if _, err := w.Place(sim.DefaultDimension, host.Location{X: x, Y: 63, Z: z}, "minecraft:stone", nil); err != nil {
				t.Fatal(err)
			}
		}
	}
	if _, err := w.Place(sim.DefaultDimension, origin, cfg.BlockID, nil); err != nil {
		t.Fatal(err)
	}
	f.player = w.AddPlayer("steve", sim.DefaultDimension, host.Vec3{X: 3.5, Y: 64, Z: 0.5}, host.GameModeSurvival)
	w.Journal()
	return f
}

// start registers a fresh controller with an empty registry.
func (f *fixture) start() {
	f.ctrl = NewController(f.cfg, f.lookup, f.world.Scheduler(), NewRegistry(), WithRand(rand.New(rand.NewPCG(7, 11))))
	if err := f.ctrl.Register(f.world); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) contents() Contents {
	b, err := f.world.BlockAt(sim.DefaultDimension, origin)
	if err != nil {
		f.t.Fatal(err)
	}
	return f.ctrl.Codec().Decode(b.Permutation())
}

func (f *fixture) insert(id string) {
	f.t.Helper()
	f.player.SetHeldItem(&host.ItemStack{TypeID: id, Amount: 1})
	if err := f.world.Interact(f.player, origin); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) hopper(loc host.Location, facing int, items ...string) *sim.Container {
	f.t.Helper()
	if _, err := f.world.Place(sim.DefaultDimension, loc, f.cfg.HopperType, map[string]any{f.cfg.FacingState: facing}); err != nil {
		f.t.Fatal(err)
	}
	c, err := f.world.ContainerAt(sim.DefaultDimension, loc)
	if err != nil {
		f.t.Fatal(err)
	}
	for _, id := range items {
		c.AddItem(host.ItemStack{TypeID: id, Amount: 1})
	}
	return c
}

func stopEvents(f *fixture, sound string) []sim.StopSoundEvent {
	var out []sim.StopSoundEvent
	for _, e := range sim.Filter(f.world.PeekJournal(), sim.EventStopSound) {
		ev := e.Data.(sim.StopSoundEvent)
		if ev.Sound == sound {
			out = append(out, ev)
		}
	}
	return out
}

func TestInsertPlaysAndStopsAtDuration(t *testing.T) {
	f := newFixture(t)
	f.insert(disc13)

	plays := sim.Filter(f.world.PeekJournal(), sim.EventPlaySound)
	if len(plays) != 1 {
		t.Fatalf("expected one sound, got %d", len(plays))
	}
	play := plays[0].Data.(sim.SoundEvent)
	if play.Sound != "record.13" || play.At != origin.Center() || play.Tick != 0 {
		t.Fatalf("sound = %+v", play)
	}
	bars := sim.Filter(f.world.PeekJournal(), sim.EventActionBar)
	if len(bars) != 1 || !strings.HasSuffix(bars[0].Data.(sim.ActionBarEvent).Message, "Now Playing: 13 - C418") {
		t.Fatalf("action bar = %+v", bars)
	}
	if got := f.contents(); got != (Contents{Disc: disc13, Playing: true}) {
		t.Fatalf("contents = %+v", got)
	}
	if _, ok := f.player.HeldItem(); ok {
		t.Fatal("survival player kept the disc")
	}

	f.world.Run(3579)
	if !f.contents().Playing || len(stopEvents(f, "record.13")) != 0 {
		t.Fatal("stopped before the disc's length")
	}
	f.world.Run(1)
	stops := stopEvents(f, "record.13")
	if len(stops) != 1 || stops[0].Tick != 3580 || stops[0].Player != f.player.ID() {
		t.Fatalf("stops = %+v", stops)
	}
	if got := f.contents(); got != (Contents{Disc: disc13}) {
		t.Fatalf("after finish = %+v, want disc kept and not playing", got)
	}
	if f.ctrl.Registry().Len() != 0 || f.world.Scheduler().Pending() != 0 {
		t.Fatalf("run left behind: registry=%d pending=%d", f.ctrl.Registry().Len(), f.world.Scheduler().Pending())
	}
}

func TestCreativeKeepsHeldDisc(t *testing.T) {
	f := newFixture(t)
	f.player.SetGameMode(host.GameModeCreative)
	f.insert(discCat)
	if held, ok := f.player.HeldItem(); !ok || held.TypeID != discCat {
		t.Fatalf("creative held = %+v %v", held, ok)
	}
}

func TestInsertDecrementsStack(t *testing.T) {
	f := newFixture(t)
	f.player.SetHeldItem(&host.ItemStack{TypeID: discCat, Amount: 3})
	_ = f.world.Interact(f.player, origin)
	if held, _ := f.player.HeldItem(); held.Amount != 2 {
		t.Fatalf("held = %+v", held)
	}
}

func TestInsertIgnoresUnknownItems(t *testing.T) {
	f := newFixture(t)
	f.insert("minecraft:diamond")
	if f.contents().Loaded() {
		t.Fatal("non-disc item loaded")
	}
	if _, ok := f.player.HeldItem(); !ok {
		t.Fatal("non-disc item consumed")
	}

	// Empty hand is an expected absence as well.
	f.player.SetHeldItem(nil)
	_ = f.world.Interact(f.player, origin)
	if f.contents().Loaded() || len(f.world.PeekJournal()) != 0 {
		t.Fatal("empty hand changed something")
	}
}

func TestUnencodableDiscNotConsumed(t *testing.T) {
	f := newFixture(t)
	catalog, err := discs.New(append(f.catalog.All(), discs.Definition{
		ID: "my_music_disc:music_disc_unlisted", Title: "x", Artist: "y", Sound: "record.unlisted", Volume: 1, Ticks: 100,
	}))
	if err != nil {
		t.Fatal(err)
	}
	f.catalog = catalog
	f.world.Restart()
	f.start()

	f.insert("my_music_disc:music_disc_unlisted")
	if f.contents().Loaded() {
		t.Fatal("disc without a slot was loaded")
	}
	if held, ok := f.player.HeldItem(); !ok || held.TypeID != "my_music_disc:music_disc_unlisted" {
		t.Fatal("disc without a slot was consumed")
	}
}

func TestEjectDropsDiscAndStops(t *testing.T) {
	f := newFixture(t)
	f.insert(discCat)
	f.world.Run(40)
	f.world.Journal()

	_ = f.world.Interact(f.player, origin)

	spawns := sim.Filter(f.world.PeekJournal(), sim.EventItemSpawn)
	if len(spawns) != 1 {
		t.Fatalf("spawns = %+v", spawns)
	}
	sp := spawns[0].Data.(sim.ItemSpawnEvent)
	want := origin.Center().Add(host.Vec3{Y: 0.5})
	if sp.Stack.TypeID != discCat || sp.At != want {
		t.Fatalf("spawn = %+v", sp)
	}
	if len(stopEvents(f, "record.cat")) != 1 {
		t.Fatal("sound not stopped on eject")
	}
	if got := f.contents(); got.Loaded() || got.Playing {
		t.Fatalf("contents after eject = %+v", got)
	}
	if f.ctrl.Registry().Len() != 0 || f.world.Scheduler().Pending() != 0 {
		t.Fatal("eject left run state behind")
	}

	// The original length passes without a second stop.
	f.world.Run(3700)
	if len(stopEvents(f, "record.cat")) != 1 {
		t.Fatal("deferred stop fired after eject")
	}
}

func TestEjectReinsertRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.insert(discCat)
	b, _ := f.world.BlockAt(sim.DefaultDimension, origin)
	first := b.Permutation().(*sim.Permutation).States()

	_ = f.world.Interact(f.player, origin)
	f.world.Run(40)
	if n := f.world.Collect(f.player, 5); n != 1 {
		t.Fatalf("collected %d", n)
	}
	_ = f.world.Interact(f.player, origin)

	again := b.Permutation().(*sim.Permutation).States()
	if len(first) != len(again) {
		t.Fatalf("state count changed")
	}
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("state %s: %v != %v", first[i].Name, first[i].Value, again[i].Value)
		}
	}
	if f.ctrl.Registry().Len() != 1 {
		t.Fatal("reinserted disc has no run")
	}
}

func TestFeederOrder(t *testing.T) {
	f := newFixture(t)
	up := f.hopper(origin.Offset(0, 1, 0), 0, discCat)
	north := f.hopper(origin.Offset(0, 0, -1), 3, discFar)

	f.world.Step()

	if got := f.contents(); got != (Contents{Disc: discCat, Playing: true}) {
		t.Fatalf("contents = %+v", got)
	}
	if up.Count(discCat) != 0 {
		t.Fatal("upper feeder not drained")
	}
	if north.Count(discFar) != 1 {
		t.Fatal("second feeder drained in the same tick")
	}
}

func TestFeederMustFaceJukebox(t *testing.T) {
	f := newFixture(t)
	// East neighbour pointing south is not connected.
	east := f.hopper(origin.Offset(1, 0, 0), 3, discCat)
	f.world.Run(5)
	if f.contents().Loaded() || east.Count(discCat) != 1 {
		t.Fatal("disconnected hopper fed the jukebox")
	}

	f.hopper(origin.Offset(1, 0, 0), 4, discCat)
	f.world.Step()
	if f.contents().Disc != discCat {
		t.Fatal("connected east hopper not used")
	}
}

func TestFeederSkipsNonDiscs(t *testing.T) {
	f := newFixture(t)
	up := f.hopper(origin.Offset(0, 1, 0), 0, "minecraft:stone", disc13)
	f.world.Step()
	if f.contents().Disc != disc13 {
		t.Fatalf("contents = %+v", f.contents())
	}
	if up.Count("minecraft:stone") != 1 {
		t.Fatal("non-disc removed from feeder")
	}
}

func TestFinishedDiscGoesToOutputHopper(t *testing.T) {
	f := newFixture(t)
	out := f.hopper(origin.Offset(0, -1, 0), 0)
	f.insert(disc13)
	f.world.Run(3580)
	if out.Count(disc13) != 0 {
		t.Fatal("disc collected while the stop tick is still running")
	}
	f.world.Step()
	if out.Count(disc13) != 1 {
		t.Fatal("finished disc not collected")
	}
	if f.contents().Loaded() {
		t.Fatal("slot not cleared after collection")
	}
}

func TestOutputHopperFull(t *testing.T) {
	f := newFixture(t)
	out := f.hopper(origin.Offset(0, -1, 0), 0, "minecraft:music_disc_5", "minecraft:music_disc_11", "minecraft:music_disc_ward", "minecraft:music_disc_wait", "minecraft:music_disc_mall")
	f.insert(discCat)
	f.world.Run(3700 + 5)
	if got := f.contents(); got != (Contents{Disc: discCat}) {
		t.Fatalf("contents = %+v", got)
	}
	if out.Count(discCat) != 0 {
		t.Fatal("full hopper accepted a disc")
	}
}

func TestDestroyDropsDisc(t *testing.T) {
	f := newFixture(t)
	f.insert(discCat)
	f.world.Run(20)
	f.world.Journal()

	if err := f.world.Destroy(f.player, origin); err != nil {
		t.Fatal(err)
	}
	spawns := sim.Filter(f.world.PeekJournal(), sim.EventItemSpawn)
	if len(spawns) != 1 || spawns[0].Data.(sim.ItemSpawnEvent).At != origin.Center() {
		t.Fatalf("spawns = %+v", spawns)
	}
	if len(stopEvents(f, "record.cat")) != 1 {
		t.Fatal("sound not stopped on destroy")
	}
	if f.ctrl.Registry().Len() != 0 || f.world.Scheduler().Pending() != 0 {
		t.Fatal("destroy left scheduled work")
	}
	f.world.Journal()
	f.world.Run(4000)
	if n := len(f.world.PeekJournal()); n != 0 {
		t.Fatalf("%d events after destroy", n)
	}
}

func TestDestroyEmptyJukebox(t *testing.T) {
	f := newFixture(t)
	_ = f.world.Destroy(f.player, origin)
	if len(sim.Filter(f.world.PeekJournal(), sim.EventItemSpawn)) != 0 {
		t.Fatal("empty jukebox dropped something")
	}
}

func TestRestartRecoversOrphan(t *testing.T) {
	f := newFixture(t)
	f.insert(disc13)
	f.world.Run(100)

	f.world.Restart()
	f.start()
	f.world.Journal()

	f.world.Step()
	if got := f.contents(); got != (Contents{Disc: disc13}) {
		t.Fatalf("after recovery = %+v", got)
	}
	if len(stopEvents(f, "record.13")) != 1 {
		t.Fatal("orphaned sound not stopped")
	}

	out := f.hopper(origin.Offset(0, -1, 0), 0)
	f.world.Step()
	if out.Count(disc13) != 1 || f.contents().Loaded() {
		t.Fatal("recovered disc not collected")
	}
}

func TestReconcileInterruptsChangedBlock(t *testing.T) {
	f := newFixture(t)
	f.insert(discCat)
	f.world.Run(3)

	if _, err := f.world.Place(sim.DefaultDimension, origin, f.cfg.BlockID, map[string]any{
		f.cfg.VanillaSlots[0]: discFar,
		f.cfg.PlayingState:    true,
	}); err != nil {
		t.Fatal(err)
	}
	f.world.Run(10)
	if f.ctrl.Registry().Has(Key{Dimension: sim.DefaultDimension, Location: origin}) {
		t.Fatal("run not interrupted")
	}
	// The next tick treats far as an orphan; the cat run never stops anything.
	f.world.Run(3700)
	if n := len(stopEvents(f, "record.cat")); n != 0 {
		t.Fatalf("interrupted run still stopped its sound %d times", n)
	}
	if f.contents().Playing {
		t.Fatal("orphaned far left playing")
	}
}

func TestUnloadedStopRecoversOnReload(t *testing.T) {
	f := newFixture(t)
	f.insert(discCat)
	d := f.world.Dimension(sim.DefaultDimension)
	d.SetLoaded(origin, false)
	f.world.Run(3800)
	if f.ctrl.Registry().Len() != 0 {
		t.Fatal("run kept while its block was unloaded past the stop")
	}
	d.SetLoaded(origin, true)
	f.world.Journal()
	f.world.Step()
	if f.contents().Playing {
		t.Fatal("playing flag not recovered after reload")
	}
	if len(stopEvents(f, "record.cat")) != 1 {
		t.Fatal("no stop after reload")
	}
}

func TestTickRequiresNearbyPlayer(t *testing.T) {
	f := newFixture(t)
	f.player.Teleport(sim.DefaultDimension, host.Vec3{X: 100, Y: 64})
	up := f.hopper(origin.Offset(0, 1, 0), 0, discCat)
	f.world.Run(20)
	if up.Count(discCat) != 1 {
		t.Fatal("feeder drained with nobody around")
	}
	f.player.Teleport(sim.DefaultDimension, host.Vec3{X: 30, Y: 64})
	f.world.Step()
	if up.Count(discCat) != 0 {
		t.Fatal("feeder not drained with a player within range")
	}
}

func TestAmbientParticles(t *testing.T) {
	f := newFixture(t)
	f.insert(discCat)
	f.world.Run(200)

	particles := sim.Filter(f.world.PeekJournal(), sim.EventParticle)
	if len(particles) < 10 || len(particles) > 21 {
		t.Fatalf("particles = %d over 200 ticks", len(particles))
	}
	p := particles[0].Data.(sim.ParticleEvent)
	if p.Effect != "minecraft:note_particle" || p.At != origin.Center().Add(host.Vec3{Y: 0.6}) {
		t.Fatalf("particle = %+v", p)
	}

	// Out of ambient range the chain keeps running but emits nothing.
	f.player.Teleport(sim.DefaultDimension, host.Vec3{X: 35.5, Y: 64, Z: 0.5})
	f.world.Journal()
	f.world.Run(100)
	if n := len(sim.Filter(f.world.PeekJournal(), sim.EventParticle)); n != 0 {
		t.Fatalf("%d particles with nobody in range", n)
	}
	f.player.Teleport(sim.DefaultDimension, host.Vec3{X: 3.5, Y: 64, Z: 0.5})
	f.world.Run(40)
	if n := len(sim.Filter(f.world.PeekJournal(), sim.EventParticle)); n == 0 {
		t.Fatal("ambient chain died while out of range")
	}
}

func TestMessageOnlyNearby(t *testing.T) {
	f := newFixture(t)
	far := f.world.AddPlayer("alex", sim.DefaultDimension, host.Vec3{X: 25.5, Y: 64, Z: 0.5}, host.GameModeSurvival)
	f.insert(discCat)
	if f.player.ActionBar() == "" {
		t.Fatal("nearby player got no message")
	}
	if far.ActionBar() != "" {
		t.Fatal("player outside message radius got a message")
	}
}

// editableCatalog is a catalog whose entries a test can drop while discs play.
type editableCatalog map[string]discs.Definition

func (c editableCatalog) Lookup(id string) (discs.Definition, bool) {
	d, ok := c[id]
	return d, ok
}

func withEditableCatalog(f *fixture) editableCatalog {
	f.t.Helper()
	edit := editableCatalog{}
	for _, d := range f.catalog.All() {
		edit[d.ID] = d
	}
	f.world.Restart()
	f.lookup = edit
	f.start()
	return edit
}

func TestEjectAfterCatalogReloadStopsSound(t *testing.T) {
	f := newFixture(t)
	edit := withEditableCatalog(f)
	f.insert(discCat)
	f.world.Run(20)
	delete(edit, discCat)
	f.world.Journal()

	_ = f.world.Interact(f.player, origin)
	if len(stopEvents(f, "record.cat")) != 1 {
		t.Fatal("live run lost its sound after the disc left the catalog")
	}
	f.world.Step()
	if f.player.Hears("record.cat") {
		t.Fatal("player still hears the ejected disc")
	}
	if got := f.contents(); got.Loaded() {
		t.Fatalf("contents after eject = %+v", got)
	}
}

func TestDestroyAfterCatalogReloadStopsSound(t *testing.T) {
	f := newFixture(t)
	edit := withEditableCatalog(f)
	f.insert(discCat)
	f.world.Run(20)
	delete(edit, discCat)
	f.world.Journal()

	if err := f.world.Destroy(f.player, origin); err != nil {
		t.Fatal(err)
	}
	if len(stopEvents(f, "record.cat")) != 1 {
		t.Fatal("destroyed run lost its sound after the disc left the catalog")
	}
	if len(sim.Filter(f.world.PeekJournal(), sim.EventItemSpawn)) != 1 {
		t.Fatal("disc not dropped")
	}
}

// noDrops is a dimension where item entities cannot spawn.
type noDrops struct {
	*sim.Dimension
}

func (noDrops) SpawnItem(host.ItemStack, host.Vec3) (host.ItemEntity, error) {
	return nil, host.ErrUnloaded
}

func TestEjectKeepsDiscWhenDropFails(t *testing.T) {
	f := newFixture(t)
	f.insert(discCat)
	f.world.Run(20)
	f.world.Journal()

	b, err := f.world.BlockAt(sim.DefaultDimension, origin)
	if err != nil {
		t.Fatal(err)
	}
	f.ctrl.Interact(host.InteractEvent{
		Block:     b,
		Dimension: noDrops{f.world.Dimension(sim.DefaultDimension)},
		Player:    f.player,
	})

	if got := f.contents(); got != (Contents{Disc: discCat}) {
		t.Fatalf("contents after failed drop = %+v", got)
	}
	if len(stopEvents(f, "record.cat")) != 1 {
		t.Fatal("sound not stopped")
	}
	if f.ctrl.Registry().Len() != 0 || f.world.Scheduler().Pending() != 0 {
		t.Fatal("run left behind")
	}

	// The disc is still there for a normal eject.
	_ = f.world.Interact(f.player, origin)
	if n := len(sim.Filter(f.world.PeekJournal(), sim.EventItemSpawn)); n != 1 {
		t.Fatalf("spawns = %d", n)
	}
	if f.contents().Loaded() {
		t.Fatal("disc still loaded after second eject")
	}
}

// stuckBlock rejects every permutation write.
type stuckBlock struct {
	*sim.Block
}

func (stuckBlock) SetPermutation(host.Permutation) error {
	return host.ErrUnloaded
}

func TestCollectSkipsWhenBlockWriteFails(t *testing.T) {
	f := newFixture(t)
	f.insert(disc13)
	f.world.Run(3600)
	if got := f.contents(); got != (Contents{Disc: disc13}) {
		t.Fatalf("contents after finish = %+v", got)
	}
	out := f.hopper(origin.Offset(0, -1, 0), 0)

	b, err := f.world.BlockAt(sim.DefaultDimension, origin)
	if err != nil {
		t.Fatal(err)
	}
	f.ctrl.Tick(host.TickEvent{Block: stuckBlock{b}, Dimension: f.world.Dimension(sim.DefaultDimension)})
	if out.Count(disc13) != 0 {
		t.Fatal("disc copied into the hopper while the block kept it")
	}
	if !f.contents().Loaded() {
		t.Fatal("disc left the block")
	}

	f.world.Step()
	if out.Count(disc13) != 1 || f.contents().Loaded() {
		t.Fatal("disc not collected once the block accepts writes")
	}
}
