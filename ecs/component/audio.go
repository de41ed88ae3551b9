package component

// SoundEmitter is a sound playing at the entity's Transform. Players within
// Radius hear it unless they stopped it locally.
type SoundEmitter struct {
	Sound  string
	Volume float64
	Radius float64
	// Muted holds player ids that stopped this sound.
	Muted map[string]bool
}

var SoundEmitterComponent = NewComponent[SoundEmitter]()
