package script

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/host"
	"github.com/milk9111/discbox/jukebox"
	"github.com/milk9111/discbox/sim"
)

const floorBlock = "minecraft:stone"

// module builds the `jb` value scenarios call into. Coordinates are always
// passed as three numbers and refer to the default dimension.
func (s *session) module() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	fn := func(name string, f func(args ...tengo.Object) (tengo.Object, error)) {
		values[name] = &tengo.UserFunction{Name: name, Value: f}
	}

	fn("floor", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		y, _ := tengo.ToInt(args[0])
		r, _ := tengo.ToInt(args[1])
		for x := -r; x <= r; x++ {
			for z := -r; z <= r; z++ {
				if _, err := s.world.Place(sim.DefaultDimension, host.Location{X: x, Y: y, Z: z}, floorBlock, nil); err != nil {
					return nil, err
				}
			}
		}
		return tengo.TrueValue, nil
	})

	fn("place", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		loc := locationArg(args[1:4])
		var states map[string]any
		if len(args) > 4 {
			states, _ = objectToAny(args[4]).(map[string]any)
		}
		if _, err := s.world.Place(sim.DefaultDimension, loc, objectAsString(args[0]), states); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	})

	fn("jukebox", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		if _, err := s.world.Place(sim.DefaultDimension, locationArg(args), s.runner.cfg.BlockID, nil); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	})

	fn("hopper", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		facing, ok := tengo.ToInt(args[3])
		if !ok {
			return nil, fmt.Errorf("hopper: facing must be an int, got %s", args[3].TypeName())
		}
		states := map[string]any{s.runner.cfg.FacingState: facing}
		if _, err := s.world.Place(sim.DefaultDimension, locationArg(args), s.runner.cfg.HopperType, states); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	})

	fn("put", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		c, err := s.world.ContainerAt(sim.DefaultDimension, locationArg(args))
		if err != nil {
			return nil, err
		}
		stack := host.ItemStack{TypeID: objectAsString(args[3]), Amount: 1}
		if len(args) > 4 {
			stack.Amount, _ = tengo.ToInt(args[4])
		}
		rest, _ := c.AddItem(stack)
		return &tengo.Int{Value: int64(stack.Amount - rest.Amount)}, nil
	})

	fn("count", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		c, err := s.world.ContainerAt(sim.DefaultDimension, locationArg(args))
		if err != nil {
			return nil, err
		}
		return &tengo.Int{Value: int64(c.Count(objectAsString(args[3])))}, nil
	})

	fn("player", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		name := objectAsString(args[0])
		if _, ok := s.players[name]; ok {
			return nil, fmt.Errorf("player: %q already joined", name)
		}
		mode := host.GameModeSurvival
		if len(args) > 4 {
			mode = host.ParseGameMode(objectAsString(args[4]))
		}
		s.players[name] = s.world.AddPlayer(name, sim.DefaultDimension, vectorArg(args[1:4]), mode)
		return &tengo.String{Value: name}, nil
	})

	fn("leave", func(args ...tengo.Object) (tengo.Object, error) {
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		s.world.RemovePlayer(p)
		delete(s.players, objectAsString(args[0]))
		return tengo.TrueValue, nil
	})

	fn("teleport", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		p.Teleport(sim.DefaultDimension, vectorArg(args[1:4]))
		return tengo.TrueValue, nil
	})

	fn("mode", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		p.SetGameMode(host.ParseGameMode(objectAsString(args[1])))
		return tengo.TrueValue, nil
	})

	fn("give", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		stack := &host.ItemStack{TypeID: objectAsString(args[1]), Amount: 1}
		if len(args) > 2 {
			stack.Amount, _ = tengo.ToInt(args[2])
		}
		p.SetHeldItem(stack)
		return tengo.TrueValue, nil
	})

	fn("held", func(args ...tengo.Object) (tengo.Object, error) {
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		stack, ok := p.HeldItem()
		if !ok {
			return &tengo.String{Value: ""}, nil
		}
		return &tengo.String{Value: stack.TypeID}, nil
	})

	fn("held_count", func(args ...tengo.Object) (tengo.Object, error) {
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		stack, _ := p.HeldItem()
		return &tengo.Int{Value: int64(stack.Amount)}, nil
	})

	fn("inventory", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		return &tengo.Int{Value: int64(p.Count(objectAsString(args[1])))}, nil
	})

	fn("message", func(args ...tengo.Object) (tengo.Object, error) {
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		return &tengo.String{Value: p.ActionBar()}, nil
	})

	fn("hears", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		return boolObject(p.Hears(objectAsString(args[1]))), nil
	})

	fn("collect", func(args ...tengo.Object) (tengo.Object, error) {
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		radius := 3.0
		if len(args) > 1 {
			radius, _ = tengo.ToFloat64(args[1])
		}
		return &tengo.Int{Value: int64(s.world.Collect(p, radius))}, nil
	})

	fn("drops", func(args ...tengo.Object) (tengo.Object, error) {
		item := ""
		if len(args) > 0 {
			item = objectAsString(args[0])
		}
		n := 0
		for _, d := range s.world.Drops() {
			if item == "" || d.Stack.TypeID == item {
				n += d.Stack.Amount
			}
		}
		return &tengo.Int{Value: int64(n)}, nil
	})

	fn("interact", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		if err := s.world.Interact(p, locationArg(args[1:4])); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	})

	fn("destroy", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		p, err := s.playerArg(args)
		if err != nil {
			return nil, err
		}
		if err := s.world.Destroy(p, locationArg(args[1:4])); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	})

	fn("tick", func(args ...tengo.Object) (tengo.Object, error) {
		n := 1
		if len(args) > 0 {
			n, _ = tengo.ToInt(args[0])
		}
		s.world.Run(n)
		return &tengo.Int{Value: int64(s.world.Tick())}, nil
	})

	fn("now", func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(s.world.Tick())}, nil
	})

	fn("restart", func(args ...tengo.Object) (tengo.Object, error) {
		s.world.Restart()
		if err := s.start(); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	})

	fn("unload", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		s.world.Dimension(sim.DefaultDimension).SetLoaded(locationArg(args), false)
		return tengo.TrueValue, nil
	})

	fn("load", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		s.world.Dimension(sim.DefaultDimension).SetLoaded(locationArg(args), true)
		return tengo.TrueValue, nil
	})

	fn("loaded", func(args ...tengo.Object) (tengo.Object, error) {
		perm, err := s.permutationArg(args)
		if err != nil || perm == nil {
			return &tengo.String{Value: ""}, err
		}
		id, _ := s.ctrl.Codec().ReadLoadedDisc(perm)
		return &tengo.String{Value: id}, nil
	})

	fn("playing", func(args ...tengo.Object) (tengo.Object, error) {
		perm, err := s.permutationArg(args)
		if err != nil || perm == nil {
			return tengo.FalseValue, err
		}
		return boolObject(s.ctrl.Codec().IsPlaying(perm)), nil
	})

	fn("slot", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		perm, err := s.permutationArg(args)
		if err != nil || perm == nil {
			return tengo.UndefinedValue, err
		}
		v, ok := perm.State(objectAsString(args[3]))
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return tengo.FromInterface(v)
	})

	fn("block", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		b, err := s.world.BlockAt(sim.DefaultDimension, locationArg(args))
		if err != nil {
			return nil, err
		}
		return &tengo.String{Value: b.TypeID()}, nil
	})

	fn("running", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		key := jukebox.Key{Dimension: sim.DefaultDimension, Location: locationArg(args)}
		return boolObject(s.ctrl.Registry().Has(key)), nil
	})

	fn("events", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		match := ""
		if len(args) > 1 {
			match = objectAsString(args[1])
		}
		n := 0
		for _, e := range sim.Filter(s.world.PeekJournal(), objectAsString(args[0])) {
			if match == "" || eventSubject(e) == match {
				n++
			}
		}
		return &tengo.Int{Value: int64(n)}, nil
	})

	fn("clear_events", func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(len(s.world.Journal()))}, nil
	})

	fn("expect", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		s.checks++
		if !args[0].IsFalsy() {
			return tengo.TrueValue, nil
		}
		msg := "expectation failed"
		if len(args) > 1 {
			msg = objectAsString(args[1])
		}
		s.failures = append(s.failures, fmt.Sprintf("tick %d: %s", s.world.Tick(), msg))
		return tengo.FalseValue, nil
	})

	fn("log", func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("script: tick %d: %s", s.world.Tick(), strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	})

	return &tengo.ImmutableMap{Value: values}
}

func (s *session) playerArg(args []tengo.Object) (*sim.Player, error) {
	if len(args) < 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	name := objectAsString(args[0])
	p, ok := s.players[name]
	if !ok || !p.IsValid() {
		return nil, fmt.Errorf("unknown player %q", name)
	}
	return p, nil
}

// permutationArg returns the permutation at the location in args, or nil
// when the block is unloaded.
func (s *session) permutationArg(args []tengo.Object) (host.Permutation, error) {
	if len(args) < 3 {
		return nil, tengo.ErrWrongNumArguments
	}
	b, err := s.world.BlockAt(sim.DefaultDimension, locationArg(args))
	if errors.Is(err, host.ErrUnloaded) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b.Permutation(), nil
}

func eventSubject(e ecs.Event) string {
	switch d := e.Data.(type) {
	case sim.SoundEvent:
		return d.Sound
	case sim.StopSoundEvent:
		return d.Sound
	case sim.ActionBarEvent:
		return d.Message
	case sim.ParticleEvent:
		return d.Effect
	case sim.ItemSpawnEvent:
		return d.Stack.TypeID
	}
	return ""
}

func locationArg(args []tengo.Object) host.Location {
	x, _ := tengo.ToInt(args[0])
	y, _ := tengo.ToInt(args[1])
	z, _ := tengo.ToInt(args[2])
	return host.Location{X: x, Y: y, Z: z}
}

func vectorArg(args []tengo.Object) host.Vec3 {
	x, _ := tengo.ToFloat64(args[0])
	y, _ := tengo.ToFloat64(args[1])
	z, _ := tengo.ToFloat64(args[2])
	return host.Vec3{X: x, Y: y, Z: z}
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
