// Package script runs tengo scenarios against a sandbox world with the
// jukebox registered. Scenarios drive the world through the `jb` module and
// record failed expectations instead of stopping.
package script

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/discbox/discs"
	"github.com/milk9111/discbox/jukebox"
	"github.com/milk9111/discbox/prefabs"
	"github.com/milk9111/discbox/sim"
)

// Result is the outcome of one scenario.
type Result struct {
	Name     string
	Failures []string
	Checks   int
	Ticks    int
	Err      error
}

func (r Result) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

type Runner struct {
	catalog jukebox.Catalog
	cfg     jukebox.Config
	world   sim.Config
	seed    uint64
}

func NewRunner(catalog jukebox.Catalog, cfg jukebox.Config, world sim.Config) *Runner {
	return &Runner{catalog: catalog, cfg: cfg, world: world, seed: 1}
}

// NewDefaultRunner loads the catalog, jukebox and world configuration from
// prefabs.
func NewDefaultRunner() (*Runner, error) {
	catalog, err := discs.Load()
	if err != nil {
		return nil, err
	}
	cfg, err := jukebox.LoadConfig()
	if err != nil {
		return nil, err
	}
	world, err := sim.DefaultConfig()
	if err != nil {
		return nil, err
	}
	return NewRunner(catalog, cfg, world), nil
}

// SetSeed fixes the random source handed to each scenario's controller.
func (r *Runner) SetSeed(seed uint64) {
	r.seed = seed
}

// RunNamed runs a scenario from prefabs/scripts.
func (r *Runner) RunNamed(ctx context.Context, name string) Result {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return Result{Name: name, Err: err}
	}
	return r.Run(ctx, strings.TrimSuffix(name, ".tengo"), src)
}

// RunAll runs every embedded scenario in name order.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	names, err := prefabs.Scripts()
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, r.RunNamed(ctx, name))
	}
	return out, nil
}

// Run executes src in a fresh world.
func (r *Runner) Run(ctx context.Context, name string, src []byte) Result {
	res := Result{Name: name}
	w, err := sim.New(r.world)
	if err != nil {
		res.Err = err
		return res
	}
	s := &session{runner: r, world: w, players: map[string]*sim.Player{}}
	if err := s.start(); err != nil {
		res.Err = err
		return res
	}

	script := tengo.NewScript(src)
	if err := script.Add("jb", s.module()); err != nil {
		res.Err = err
		return res
	}
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		res.Err = fmt.Errorf("script: compile %s: %w", name, err)
		return res
	}
	if err := compiled.RunContext(ctx); err != nil {
		res.Err = fmt.Errorf("script: run %s: %w", name, err)
	}
	res.Failures = s.failures
	res.Checks = s.checks
	res.Ticks = w.Tick()
	return res
}

// session is the state behind one scenario run.
type session struct {
	runner   *Runner
	world    *sim.World
	ctrl     *jukebox.Controller
	players  map[string]*sim.Player
	failures []string
	checks   int
}

// start registers a fresh controller; a restart calls it again so the
// registry starts empty like after a reload.
func (s *session) start() error {
	r := s.runner
	s.ctrl = jukebox.NewController(r.cfg, r.catalog, s.world.Scheduler(), jukebox.NewRegistry(),
		jukebox.WithRand(rand.New(rand.NewPCG(r.seed, r.seed+1))))
	return s.ctrl.Register(s.world)
}
