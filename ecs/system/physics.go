package system

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/discbox/ecs"
	"github.com/milk9111/discbox/ecs/component"
	"github.com/milk9111/discbox/host"
)

const (
	itemRadius   = 0.125
	itemMass     = 1.0
	itemGravity  = -0.04
	itemDamping  = 0.98
	itemFriction = 0.6
	voidY        = -64
)

// SolidFunc reports whether the block at the given coordinate stops items.
type SolidFunc func(dimension string, x, y, z int) bool

// ItemPhysicsSystem moves dropped items. Horizontal motion runs in a chipmunk
// space mapped onto the X/Z plane; vertical motion is integrated per item so
// items can land on solid blocks.
type ItemPhysicsSystem struct {
	space  *cp.Space
	bodies map[ecs.Entity]*component.PhysicsBody
	solid  SolidFunc
}

func NewItemPhysicsSystem(solid SolidFunc) *ItemPhysicsSystem {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	space.SetDamping(itemDamping)
	return &ItemPhysicsSystem{
		space:  space,
		bodies: make(map[ecs.Entity]*component.PhysicsBody),
		solid:  solid,
	}
}

func (ps *ItemPhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *ItemPhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}

	ps.removeDead(w)

	ecs.ForEach2(w, component.ItemDropComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, drop *component.ItemDrop, t *component.Transform) {
		pb := ps.ensureBody(w, e, t)
		if drop.Impulse != (host.Vec3{}) {
			pb.Body.ApplyImpulseAtWorldPoint(cp.Vector{X: drop.Impulse.X, Y: drop.Impulse.Z}, pb.Body.Position())
			pb.VY += drop.Impulse.Y / pb.Mass
			pb.Grounded = false
			drop.Impulse = host.Vec3{}
		}
	})

	ps.space.Step(1.0)

	ecs.ForEach3(w, component.ItemDropComponent.Kind(), component.TransformComponent.Kind(), component.PhysicsBodyComponent.Kind(), func(e ecs.Entity, _ *component.ItemDrop, t *component.Transform, pb *component.PhysicsBody) {
		pos := pb.Body.Position()
		t.X, t.Z = pos.X, pos.Y
		ps.stepVertical(t, pb)
		if t.Y < voidY {
			ecs.DestroyEntity(w, e)
		}
	})

	ps.removeDead(w)
}

func (ps *ItemPhysicsSystem) stepVertical(t *component.Transform, pb *component.PhysicsBody) {
	if pb.Grounded && !ps.isSolid(t.Dimension, t.X, t.Y-itemRadius-0.01, t.Z) {
		pb.Grounded = false
	}
	if pb.Grounded {
		pb.Body.SetVelocityVector(pb.Body.Velocity().Mult(itemFriction))
		return
	}

	pb.VY += itemGravity
	next := t.Y + pb.VY
	if pb.VY < 0 && ps.isSolid(t.Dimension, t.X, next-itemRadius, t.Z) {
		t.Y = math.Floor(next-itemRadius) + 1 + itemRadius
		pb.VY = 0
		pb.Grounded = true
		return
	}
	t.Y = next
}

func (ps *ItemPhysicsSystem) isSolid(dim string, x, y, z float64) bool {
	if ps.solid == nil {
		return false
	}
	return ps.solid(dim, int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(z)))
}

func (ps *ItemPhysicsSystem) ensureBody(w *ecs.World, e ecs.Entity, t *component.Transform) *component.PhysicsBody {
	if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok && pb.Body != nil {
		return pb
	}

	body := cp.NewBody(itemMass, cp.MomentForCircle(itemMass, 0, itemRadius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: t.X, Y: t.Z})
	shape := cp.NewCircle(body, itemRadius, cp.Vector{})
	shape.SetSensor(true)
	ps.space.AddBody(body)
	ps.space.AddShape(shape)

	pb := &component.PhysicsBody{Body: body, Shape: shape, Radius: itemRadius, Mass: itemMass}
	if err := ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), pb); err != nil {
		panic("item physics: add body: " + err.Error())
	}
	ps.bodies[e] = pb
	return pb
}

func (ps *ItemPhysicsSystem) removeDead(w *ecs.World) {
	for e, pb := range ps.bodies {
		if ecs.IsAlive(w, e) {
			continue
		}
		if pb.Shape != nil {
			ps.space.RemoveShape(pb.Shape)
		}
		if pb.Body != nil {
			ps.space.RemoveBody(pb.Body)
		}
		delete(ps.bodies, e)
	}
}
