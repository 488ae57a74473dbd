package region

// Preserved names a declaration taken verbatim from a protected region
// instead of being regenerated.
type Preserved struct {
	Kind Kind
	Name string
	Line int

	// Edited reports that the kept block differs from what would have been
	// generated.
	Edited bool
}

// Emission is the output of one emitter run: the file content and the
// declarations that came from protected regions. Emitters of every target
// syntax return it.
type Emission struct {
	Content   string
	Preserved []Preserved
}
