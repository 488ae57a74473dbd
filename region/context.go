package region

// Context is the protected-region state of one output file. It is built once
// per generation run and read-only afterwards.
type Context struct {
	regions     map[Kind]*Region
	identifiers map[Kind]map[string]Declaration
	warnings    []Warning
	existing    bool
}

// ForNewFile returns the context of a file that does not exist yet: every
// region is absent.
func ForNewFile() *Context {
	return &Context{
		regions:     make(map[Kind]*Region),
		identifiers: make(map[Kind]map[string]Declaration),
	}
}

// ForExistingFile scans text for protected regions.
func ForExistingFile(text string) *Context {
	res := Scan(text)
	c := &Context{
		regions:     res.Regions,
		identifiers: make(map[Kind]map[string]Declaration),
		warnings:    res.Warnings,
		existing:    true,
	}
	for kind, r := range res.Regions {
		ids := make(map[string]Declaration, len(r.Declarations))
		for _, d := range r.Declarations {
			if _, dup := ids[d.Name]; !dup {
				ids[d.Name] = d
			}
		}
		c.identifiers[kind] = ids
	}
	return c
}

// Build returns ForNewFile when existing is nil, ForExistingFile otherwise.
func Build(existing *string) *Context {
	if existing == nil {
		return ForNewFile()
	}
	return ForExistingFile(*existing)
}

// Existing reports whether the context was built from a prior file.
func (c *Context) Existing() bool {
	return c.existing
}

// Region returns the region of kind k, or nil when the prior file has none.
func (c *Context) Region(k Kind) *Region {
	return c.regions[k]
}

// Raw returns the preserved block of kind k: nil when the region is absent,
// a pointer to "" when it exists but is empty.
func (c *Context) Raw(k Kind) *string {
	r := c.regions[k]
	if r == nil {
		return nil
	}
	raw := r.Raw
	return &raw
}

// Contains reports whether name is declared inside the region of kind k.
func (c *Context) Contains(k Kind, name string) bool {
	_, ok := c.identifiers[k][name]
	return ok
}

// Declaration looks up a preserved declaration by name.
func (c *Context) Declaration(k Kind, name string) (Declaration, bool) {
	d, ok := c.identifiers[k][name]
	return d, ok
}

// Identifiers lists the names declared in the region of kind k in file order.
func (c *Context) Identifiers(k Kind) []string {
	r := c.regions[k]
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Declarations))
	seen := make(map[string]bool, len(r.Declarations))
	for _, d := range r.Declarations {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	return names
}

// Warnings returns the malformed-region reports of the scan.
func (c *Context) Warnings() []Warning {
	return c.warnings
}
