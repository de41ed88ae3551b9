// Package host describes the game-engine collaborators the jukebox add-on
// runs against. Blocks, containers, actors, sounds, particles, item drops and
// the tick scheduler all belong to the host; the add-on only orchestrates them.
package host

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnloaded     = errors.New("host: location not loaded")
	ErrInvalidState = errors.New("host: state value not in enumeration")
	ErrUnknownState = errors.New("host: unknown block state")
	ErrNoContainer  = errors.New("host: block has no container")
	ErrTypeMismatch = errors.New("host: permutation belongs to another block type")
	ErrInvalidActor = errors.New("host: actor no longer valid")
)

// Location is an integer block coordinate.
type Location struct {
	X, Y, Z int
}

func (l Location) Offset(dx, dy, dz int) Location {
	return Location{X: l.X + dx, Y: l.Y + dy, Z: l.Z + dz}
}

// Center returns the middle of the block volume.
func (l Location) Center() Vec3 {
	return Vec3{X: float64(l.X) + 0.5, Y: float64(l.Y) + 0.5, Z: float64(l.Z) + 0.5}
}

func (l Location) String() string {
	return fmt.Sprintf("%d,%d,%d", l.X, l.Y, l.Z)
}

// Vec3 is a world-space position or impulse.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ItemStack is a count of one item type.
type ItemStack struct {
	TypeID string
	Amount int
}

type GameMode int

const (
	GameModeSurvival GameMode = iota
	GameModeCreative
	GameModeAdventure
	GameModeSpectator
)

func (m GameMode) String() string {
	switch m {
	case GameModeCreative:
		return "creative"
	case GameModeAdventure:
		return "adventure"
	case GameModeSpectator:
		return "spectator"
	default:
		return "survival"
	}
}

// ParseGameMode maps a mode name to a GameMode, defaulting to survival.
func ParseGameMode(s string) GameMode {
	switch s {
	case "creative", "c", "1":
		return GameModeCreative
	case "adventure", "a", "2":
		return GameModeAdventure
	case "spectator", "sp", "6":
		return GameModeSpectator
	default:
		return GameModeSurvival
	}
}

// Permutation is an immutable snapshot of a block's type and state values.
// WithState returns a new permutation; the receiver is never modified.
type Permutation interface {
	TypeID() string
	State(name string) (any, bool)
	WithState(name string, value any) (Permutation, error)
}

// Block is a live reference to a position in a dimension. Reads reflect the
// current world; a Block whose chunk unloaded returns ErrUnloaded.
type Block interface {
	TypeID() string
	Location() Location
	Dimension() Dimension
	Permutation() Permutation
	SetPermutation(p Permutation) error
	Below(n int) (Block, error)
	Container() (Container, error)
}

// Container is a block or entity inventory.
type Container interface {
	Size() int
	EmptySlotsCount() int
	Item(slot int) (ItemStack, bool)
	SetItem(slot int, stack *ItemStack)
	// AddItem inserts stack and returns what did not fit.
	AddItem(stack ItemStack) (ItemStack, bool)
}

// Actor is a player able to interact with blocks.
type Actor interface {
	ID() string
	IsValid() bool
	GameMode() GameMode
	HeldItem() (ItemStack, bool)
	SetHeldItem(stack *ItemStack)
	SetActionBar(message string)
	StopSound(soundID string) error
}

// ItemEntity is a dropped item in the world.
type ItemEntity interface {
	ApplyImpulse(impulse Vec3)
	Stack() ItemStack
}

type Dimension interface {
	ID() string
	Block(loc Location) (Block, error)
	PlayersInRadius(center Vec3, radius float64) []Actor
	PlaySound(soundID string, at Vec3, volume float64) error
	SpawnParticle(effectID string, at Vec3) error
	SpawnItem(stack ItemStack, at Vec3) (ItemEntity, error)
}

// Handle identifies a scheduled callback.
type Handle uint64

// Scheduler runs callbacks on host ticks. Callbacks never run concurrently
// with each other or with block event handlers.
type Scheduler interface {
	RunTimeout(fn func(), ticks int) Handle
	RunInterval(fn func(), ticks int) Handle
	ClearRun(h Handle)
}
