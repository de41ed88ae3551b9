package main

import (
	"fmt"
	"image/color"
	"log"
	"math/rand/v2"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/discbox/discs"
	"github.com/milk9111/discbox/host"
	"github.com/milk9111/discbox/jukebox"
	"github.com/milk9111/discbox/prefabs"
	"github.com/milk9111/discbox/sim"
	"golang.org/x/image/colornames"
)

const (
	baseWidth      = 1280
	baseHeight     = 720
	ticksPerSecond = 20

	gridRadius = 8
	cellSize   = 32
	floorY     = 63
)

// Game is a top-down sandbox around one jukebox. The cursor selects a
// column; the layer keys pick its height.
type Game struct {
	debug  bool
	paused bool

	world   *sim.World
	cfg     jukebox.Config
	catalog *discs.Catalog
	ctrl    *jukebox.Controller
	rng     *rand.Rand
	player  *sim.Player

	cursor host.Location
	facing int
	disc   int

	watcher  *prefabs.Watcher
	stop     chan struct{}
	reloaded chan int
	status   string
}

func NewGame(debug bool, seed uint64) (*Game, error) {
	world, err := sim.NewDefault()
	if err != nil {
		return nil, err
	}
	cfg, err := jukebox.LoadConfig()
	if err != nil {
		return nil, err
	}
	catalog, err := discs.Load()
	if err != nil {
		return nil, err
	}

	g := &Game{
		debug:   debug,
		world:   world,
		cfg:     cfg,
		catalog: catalog,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cursor:  host.Location{X: 0, Y: floorY + 1, Z: 0},
		stop:    make(chan struct{}),
	}
	g.reloaded = make(chan int, 1)
	if err := g.register(); err != nil {
		return nil, err
	}

	for x := -gridRadius; x <= gridRadius; x++ {
		for z := -gridRadius; z <= gridRadius; z++ {
			if _, err := world.Place(sim.DefaultDimension, host.Location{X: x, Y: floorY, Z: z}, "minecraft:stone", nil); err != nil {
				return nil, err
			}
		}
	}
	if _, err := world.Place(sim.DefaultDimension, g.cursor, cfg.BlockID, nil); err != nil {
		return nil, err
	}
	g.player = world.AddPlayer("sandbox", sim.DefaultDimension, host.Vec3{X: 2.5, Y: floorY + 1, Z: 2.5}, host.GameModeSurvival)
	return g, nil
}

func (g *Game) register() error {
	g.ctrl = jukebox.NewController(g.cfg, g.catalog, g.world.Scheduler(), jukebox.NewRegistry(), jukebox.WithRand(g.rng))
	return g.ctrl.Register(g.world)
}

// WatchCatalog reloads the disc catalog when discs.yaml changes on disk.
func (g *Game) WatchCatalog() error {
	w, err := prefabs.NewWatcher()
	if err != nil {
		return err
	}
	g.watcher = w
	g.catalog.Watch(w, g.stop, func() {
		select {
		case g.reloaded <- g.catalog.Len():
		default:
		}
	})
	return nil
}

func (g *Game) Close() {
	close(g.stop)
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) Update() error {
	select {
	case n := <-g.reloaded:
		g.status = fmt.Sprintf("catalog reloaded: %d discs", n)
	default:
	}
	g.handleInput()

	if !g.paused {
		g.world.Step()
	} else if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.world.Step()
	}
	g.world.Journal()
	return nil
}

func (g *Game) handleInput() {
	move := func(dx, dy, dz int) { g.cursor = g.cursor.Offset(dx, dy, dz) }
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		move(-1, 0, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		move(1, 0, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		move(0, 0, -1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		move(0, 0, 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		move(0, 1, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		move(0, -1, 0)
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.report("interact", g.world.Interact(g.player, g.cursor))
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		g.report("destroy", g.world.Destroy(g.player, g.cursor))
	case inpututil.IsKeyJustPressed(ebiten.KeyJ):
		_, err := g.world.Place(sim.DefaultDimension, g.cursor, g.cfg.BlockID, nil)
		g.report("place jukebox", err)
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		_, err := g.world.Place(sim.DefaultDimension, g.cursor, g.cfg.HopperType, map[string]any{g.cfg.FacingState: g.facing})
		g.report(fmt.Sprintf("place hopper facing %d", g.facing), err)
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		g.facing = (g.facing + 1) % 6
		g.status = fmt.Sprintf("hopper facing %d", g.facing)
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		g.disc++
		g.status = "selected " + g.selectedDisc().ID
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		d := g.selectedDisc()
		g.player.SetHeldItem(&host.ItemStack{TypeID: d.ID, Amount: 1})
		g.status = "holding " + d.ID
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		g.insertIntoHopper()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.status = fmt.Sprintf("picked up %d stacks", g.world.Collect(g.player, 4))
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		at := g.cursor.Center()
		g.player.Teleport(sim.DefaultDimension, host.Vec3{X: at.X, Y: float64(g.cursor.Y), Z: at.Z})
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.world.Restart()
		g.report("restart", g.register())
	}
}

func (g *Game) selectedDisc() discs.Definition {
	all := g.catalog.All()
	if len(all) == 0 {
		return discs.Definition{}
	}
	return all[g.disc%len(all)]
}

func (g *Game) insertIntoHopper() {
	c, err := g.world.ContainerAt(sim.DefaultDimension, g.cursor)
	if err != nil {
		g.report("fill", err)
		return
	}
	d := g.selectedDisc()
	if _, left := c.AddItem(host.ItemStack{TypeID: d.ID, Amount: 1}); left {
		g.status = "container full"
		return
	}
	g.status = "added " + d.ID
}

func (g *Game) report(action string, err error) {
	if err != nil {
		g.status = fmt.Sprintf("%s: %v", action, err)
		log.Printf("sandbox: %s", g.status)
		return
	}
	g.status = action
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)

	originX := float32(baseWidth - (2*gridRadius+1)*cellSize - 20)
	originY := float32(20)
	toScreen := func(x, z float64) (float32, float32) {
		return originX + float32(x+gridRadius)*cellSize, originY + float32(z+gridRadius)*cellSize
	}

	for x := -gridRadius; x <= gridRadius; x++ {
		for z := -gridRadius; z <= gridRadius; z++ {
			loc := host.Location{X: x, Y: g.cursor.Y, Z: z}
			sx, sy := toScreen(float64(x), float64(z))
			vector.DrawFilledRect(screen, sx+1, sy+1, cellSize-2, cellSize-2, g.cellColor(loc), false)
			if g.isPlaying(loc) {
				vector.StrokeRect(screen, sx+2, sy+2, cellSize-4, cellSize-4, 2, colornames.Gold, false)
			}
		}
	}

	for _, d := range g.world.Drops() {
		sx, sy := toScreen(d.At.X, d.At.Z)
		vector.DrawFilledCircle(screen, sx, sy, 4, colornames.Aqua, true)
	}
	_, at := g.player.Position()
	px, py := toScreen(at.X, at.Z)
	vector.DrawFilledCircle(screen, px, py, 6, colornames.Crimson, true)
	cx, cy := toScreen(float64(g.cursor.X), float64(g.cursor.Z))
	vector.StrokeRect(screen, cx, cy, cellSize, cellSize, 2, colornames.White, false)

	ebitenutil.DebugPrint(screen, g.debugText())
}

func (g *Game) cellColor(loc host.Location) color.Color {
	b, err := g.world.BlockAt(sim.DefaultDimension, loc)
	if err != nil {
		return colornames.Black
	}
	switch b.TypeID() {
	case g.cfg.BlockID:
		return colornames.Saddlebrown
	case g.cfg.HopperType:
		return colornames.Darkslategray
	case "minecraft:chest":
		return colornames.Peru
	case "minecraft:stone":
		return colornames.Gray
	default:
		return colornames.Dimgray
	}
}

func (g *Game) isPlaying(loc host.Location) bool {
	b, err := g.world.BlockAt(sim.DefaultDimension, loc)
	if err != nil || b.TypeID() != g.cfg.BlockID {
		return false
	}
	return g.ctrl.Codec().IsPlaying(b.Permutation())
}

func (g *Game) debugText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tick %d  TPS %.1f", g.world.Tick(), ebiten.ActualTPS())
	if g.paused {
		sb.WriteString("  [paused, N steps]")
	}
	fmt.Fprintf(&sb, "\ncursor %s  layer %d", g.cursor, g.cursor.Y)

	if b, err := g.world.BlockAt(sim.DefaultDimension, g.cursor); err == nil {
		fmt.Fprintf(&sb, "\nblock %s", b.TypeID())
		if b.TypeID() == g.cfg.BlockID {
			c := g.ctrl.Codec().Decode(b.Permutation())
			fmt.Fprintf(&sb, "\n  disc %q playing=%v", c.Disc, c.Playing)
		}
		if c, err := g.world.ContainerAt(sim.DefaultDimension, g.cursor); err == nil {
			for _, it := range c.Items() {
				fmt.Fprintf(&sb, "\n  %dx %s", it.Amount, it.TypeID)
			}
		}
	}

	held, _ := g.player.HeldItem()
	fmt.Fprintf(&sb, "\n\nheld %s  selected %s", held.TypeID, g.selectedDisc().ID)
	if bar := g.player.ActionBar(); bar != "" {
		fmt.Fprintf(&sb, "\n%s", bar)
	}
	if g.status != "" {
		fmt.Fprintf(&sb, "\n> %s", g.status)
	}

	if g.debug {
		fmt.Fprintf(&sb, "\n\nscheduled %d  runs %d", g.world.Scheduler().Pending(), g.ctrl.Registry().Len())
		for _, k := range g.ctrl.Registry().Keys() {
			disc, _ := g.ctrl.Registry().Disc(k)
			fmt.Fprintf(&sb, "\n  %s %s", k, disc)
		}
	}

	sb.WriteString("\n\narrows/pgup/pgdn move  E interact  X destroy  J jukebox  H hopper  F facing")
	sb.WriteString("\nTab next disc  G hold disc  I put in hopper  C collect  P move player  R restart  Space pause")
	return sb.String()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
