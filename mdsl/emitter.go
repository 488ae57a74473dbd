// Package mdsl serializes contract models to the Microservice Domain-Specific
// Language (MDSL), merging protected regions of a previously generated file.
package mdsl

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/contractgen/contract"
	"github.com/teranos/contractgen/errors"
	"github.com/teranos/contractgen/region"
)

// Generator emits MDSL.
type Generator struct{}

// NewGenerator returns the MDSL generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Language names the target syntax.
func (g *Generator) Language() string {
	return "MDSL"
}

// FileExtension is the extension of generated files, without the dot.
func (g *Generator) FileExtension() string {
	return "mdsl"
}

// Emit renders cm. Each category's declarations are written inside that
// category's protected region. A declaration whose name is already declared
// in the prior region is copied from there instead of being regenerated.
func (g *Generator) Emit(cm *contract.ContractModel, rc *region.Context) (*region.Emission, error) {
	if rc == nil {
		rc = region.ForNewFile()
	}
	version, err := normalizeVersion(cm.APIVersion)
	if err != nil {
		return nil, err
	}

	w := &writer{rc: rc}
	w.header(cm, version)

	w.section(region.DataTypes, len(cm.DataTypes), func(i int) (string, string) {
		dt := cm.DataTypes[i]
		return dt.Name, dataType(dt)
	}, false)

	w.section(region.Endpoints, len(cm.Endpoints), func(i int) (string, string) {
		ep := cm.Endpoints[i]
		return ep.Name, endpoint(ep)
	}, true)

	for _, flow := range cm.Flows {
		w.b.WriteString("\n")
		w.b.WriteString(orchestrationFlow(flow))
	}

	w.section(region.Providers, len(cm.Providers), func(i int) (string, string) {
		p := cm.Providers[i]
		return p.Name, provider(p)
	}, true)

	w.section(region.Clients, len(cm.Clients), func(i int) (string, string) {
		c := cm.Clients[i]
		return c.Name, client(c)
	}, true)

	return &region.Emission{Content: w.b.String(), Preserved: w.preserved}, nil
}

// normalizeVersion renders a semantic version in full major.minor.patch form.
func normalizeVersion(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrInvalidRequest, "API version %q is not a semantic version: %v", v, err),
			"set generator.api_version to a version like 1.0.0")
	}
	return parsed.String(), nil
}

type writer struct {
	b         strings.Builder
	rc        *region.Context
	preserved []region.Preserved
}

func (w *writer) header(cm *contract.ContractModel, version string) {
	if cm.ContextMapName != "" {
		fmt.Fprintf(&w.b, "// Generated from DDD Context Map '%s'.\n", cm.ContextMapName)
	}
	fmt.Fprintf(&w.b, "API description %sAPI\n", cm.Name)
	if version != "" {
		fmt.Fprintf(&w.b, "version \"%s\"\n", version)
	}
}

// section writes the protected region of kind k. When every declaration of
// the category is already in the prior region, the region is copied byte for
// byte. Otherwise the region is rebuilt in model order from kept and fresh
// declarations, followed by kept declarations the model no longer has.
// Spaced sections separate declarations with a blank line.
func (w *writer) section(k region.Kind, n int, decl func(int) (string, string), spaced bool) {
	prior := w.rc.Region(k)

	var blocks []string
	fresh := false
	inModel := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		name, text := decl(i)
		inModel[name] = true
		if d, ok := w.rc.Declaration(k, name); ok {
			w.preserved = append(w.preserved, region.Preserved{
				Kind:   k,
				Name:   name,
				Line:   d.Line,
				Edited: d.Text != strings.TrimSuffix(text, "\n"),
			})
			blocks = append(blocks, d.Text)
			continue
		}
		fresh = true
		blocks = append(blocks, strings.TrimSuffix(text, "\n"))
	}

	if !fresh {
		if prior != nil {
			w.b.WriteString("\n")
			w.b.WriteString(prior.BeginLine)
			w.b.WriteString("\n")
			w.b.WriteString(prior.Raw)
			w.b.WriteString(prior.EndLine)
			w.b.WriteString("\n")
		}
		return
	}

	begin, end := region.BeginMarker(k), region.EndMarker(k)
	var leading string
	if prior != nil {
		begin, end = prior.BeginLine, prior.EndLine
		leading = leadingText(prior)
		for _, name := range w.rc.Identifiers(k) {
			if !inModel[name] {
				d, _ := w.rc.Declaration(k, name)
				blocks = append(blocks, d.Text)
			}
		}
	}

	w.b.WriteString("\n")
	w.b.WriteString(begin)
	w.b.WriteString("\n")
	w.b.WriteString(leading)
	for i, block := range blocks {
		if i > 0 && spaced {
			w.b.WriteString("\n")
		}
		w.b.WriteString(block)
		w.b.WriteString("\n")
	}
	w.b.WriteString(end)
	w.b.WriteString("\n")
}

// leadingText is the non-blank text of a region before its first
// declaration, such as a note the user left at the top.
func leadingText(r *region.Region) string {
	text := r.Raw
	if len(r.Declarations) > 0 {
		idx := strings.Index(r.Raw, r.Declarations[0].Text)
		if idx < 0 {
			return ""
		}
		text = r.Raw[:idx]
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return text
}

func dataType(dt *contract.DataType) string {
	var b strings.Builder
	writeComment(&b, "", dt.Comments)
	switch {
	case dt.IsAbstract:
		fmt.Fprintf(&b, "data type %s P\n", dt.Name)
	case dt.IsEnum:
		literals := make([]string, 0, len(dt.Attributes))
		for _, a := range dt.Attributes {
			literals = append(literals, fmt.Sprintf("%q", a.Name))
		}
		fmt.Fprintf(&b, "data type %s { %s }\n", dt.Name, strings.Join(literals, " | "))
	default:
		fields := make([]string, 0, len(dt.Attributes))
		for _, a := range dt.Attributes {
			fields = append(fields, fmt.Sprintf("%q:%s%s", a.Name, attributeType(a), cardinality(a.IsCollection, a.IsNullable)))
		}
		fmt.Fprintf(&b, "data type %s { %s }\n", dt.Name, strings.Join(fields, ", "))
	}
	return b.String()
}

func attributeType(a contract.DataTypeAttribute) string {
	if a.IsReference {
		return a.TypeName
	}
	return "D<" + BaseType(a.TypeName) + ">"
}

func cardinality(collection, nullable bool) string {
	switch {
	case collection:
		return "*"
	case nullable:
		return "?"
	default:
		return ""
	}
}

func payload(dt *contract.DataType, collection bool) string {
	name := dt.Name
	if dt.IsPrimitive {
		name = "D<" + BaseType(dt.Name) + ">"
	}
	return name + cardinality(collection, false)
}

func endpoint(ep *contract.EndpointContract) string {
	var b strings.Builder
	fmt.Fprintf(&b, "endpoint type %s\n", ep.Name)
	if len(ep.Operations) == 0 {
		return b.String()
	}
	b.WriteString("\texposes\n")
	for _, op := range ep.Operations {
		fmt.Fprintf(&b, "\t\toperation %s", op.Name)
		if op.Responsibility != "" {
			fmt.Fprintf(&b, " with responsibility %q", op.Responsibility)
		}
		b.WriteString("\n")
		if op.Expecting != nil {
			fmt.Fprintf(&b, "\t\t\texpecting\n\t\t\t\tpayload %s\n", payload(op.Expecting, op.ExpectingCollection))
		}
		if op.Delivering != nil {
			fmt.Fprintf(&b, "\t\t\tdelivering\n\t\t\t\tpayload %s\n", payload(op.Delivering, op.DeliveringCollection))
		}
	}
	return b.String()
}

func orchestrationFlow(flow *contract.OrchestrationFlow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "flow %s\n", flow.Name)
	for _, step := range flow.Steps {
		if step.IsDependentStep {
			fmt.Fprintf(&b, "\tcommand %s emits event %s\n", step.Command, step.Event)
		} else {
			fmt.Fprintf(&b, "\tevent %s triggers command %s\n", step.Event, step.Command)
		}
	}
	return b.String()
}

func provider(p *contract.EndpointProvider) string {
	var b strings.Builder
	fmt.Fprintf(&b, "API provider %s\n", p.Name)
	for _, offer := range p.Offers {
		fmt.Fprintf(&b, "\toffers %s\n", offer.Endpoint.Name)
		fmt.Fprintf(&b, "\tat endpoint location %q\n", offer.Location)
		writeComment(&b, "\t\t", offer.ProtocolComment)
		fmt.Fprintf(&b, "\t\tvia protocol %q\n", offer.Protocol)
	}
	return b.String()
}

func client(c *contract.EndpointClient) string {
	var b strings.Builder
	fmt.Fprintf(&b, "API client %s\n", c.Name)
	for _, name := range c.Consumes {
		fmt.Fprintf(&b, "\tconsumes %s\n", name)
	}
	return b.String()
}

func writeComment(b *strings.Builder, indent, text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(b, "%s// %s\n", indent, line)
	}
}
