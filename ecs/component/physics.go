package component

import "github.com/jakecoffman/cp"

// PhysicsBody is the chipmunk body carrying an entity's horizontal motion.
// The body lives in the X/Z plane; VY carries vertical speed separately.
type PhysicsBody struct {
	Body     *cp.Body
	Shape    *cp.Shape
	Radius   float64
	Mass     float64
	VY       float64
	Grounded bool
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()
