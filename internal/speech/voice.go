package speech

// Voice describes one voice offered by an engine.
type Voice struct {
	// ID is what the engine needs to select the voice.
	ID       string
	Name     string
	Language string
	Default  bool
}

// Label is the text shown for the voice in selectors.
func (v Voice) Label() string {
	s := v.Name
	if v.Language != "" {
		s += " (" + v.Language + ")"
	}
	if v.Default {
		s += " — default"
	}
	return s
}
