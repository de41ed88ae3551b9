package component

type Particle struct {
	Effect string
}

var ParticleComponent = NewComponent[Particle]()
