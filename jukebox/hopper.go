package jukebox

import (
	"fmt"

	"github.com/milk9111/discbox/host"
)

// Direction is a side of the jukebox.
type Direction string

const (
	Up    Direction = "up"
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// FeederOrder is the order feeders are probed and drained.
var FeederOrder = []Direction{Up, North, South, East, West}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, North, South, East, West:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Offset returns the neighbour of loc on side d. North is -Z, east is +X.
func (d Direction) Offset(loc host.Location) host.Location {
	switch d {
	case Up:
		return loc.Offset(0, 1, 0)
	case North:
		return loc.Offset(0, 0, -1)
	case South:
		return loc.Offset(0, 0, 1)
	case East:
		return loc.Offset(1, 0, 0)
	case West:
		return loc.Offset(-1, 0, 0)
	}
	return loc
}

// Hoppers resolves the containers a jukebox exchanges discs with. Facing
// maps a hopper's orientation code to the side of the jukebox it must sit
// on to point into it.
type Hoppers struct {
	Type        string
	FacingState string
	Facing      map[int]Direction
}

func NewHoppers(cfg Config) Hoppers {
	return Hoppers{Type: cfg.HopperType, FacingState: cfg.FacingState, Facing: cfg.Facing}
}

// FindOutputContainer returns the container of the output hopper directly
// below b.
func (h Hoppers) FindOutputContainer(b host.Block) (host.Container, bool) {
	below, err := b.Below(1)
	if err != nil || below.TypeID() != h.Type {
		return nil, false
	}
	c, err := below.Container()
	if err != nil {
		return nil, false
	}
	return c, true
}

// FindFeederContainers returns the containers of hoppers around b that point
// into it, in FeederOrder.
func (h Hoppers) FindFeederContainers(b host.Block, dim host.Dimension) []host.Container {
	var out []host.Container
	for _, dir := range FeederOrder {
		nb, err := dim.Block(dir.Offset(b.Location()))
		if err != nil || nb.TypeID() != h.Type {
			continue
		}
		if !h.connected(nb, dir) {
			continue
		}
		c, err := nb.Container()
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (h Hoppers) connected(nb host.Block, side Direction) bool {
	perm := nb.Permutation()
	if perm == nil {
		return false
	}
	v, ok := perm.State(h.FacingState)
	if !ok {
		return false
	}
	code, ok := v.(int)
	if !ok {
		return false
	}
	return h.Facing[code] == side
}
