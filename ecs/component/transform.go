package component

// Transform is a world-space position. Y is up.
type Transform struct {
	Dimension string
	X         float64
	Y         float64
	Z         float64
}

var TransformComponent = NewComponent[Transform]()
