package cml

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/contractgen/errors"
)

// Document is the serialized form of a resolved domain model. It mirrors the
// CML object graph after name resolution; it is not CML syntax.
type Document struct {
	ContextMap    string                 `yaml:"context_map" toml:"context_map"`
	Contexts      []ContextDocument      `yaml:"contexts" toml:"contexts"`
	Relationships []RelationshipDocument `yaml:"relationships" toml:"relationships"`
}

// ContextDocument describes a bounded context.
type ContextDocument struct {
	Name        string               `yaml:"name" toml:"name"`
	Aggregates  []AggregateDocument  `yaml:"aggregates" toml:"aggregates"`
	Application *ApplicationDocument `yaml:"application,omitempty" toml:"application,omitempty"`
}

// AggregateDocument describes an aggregate.
type AggregateDocument struct {
	Name     string            `yaml:"name" toml:"name"`
	Comment  string            `yaml:"comment,omitempty" toml:"comment,omitempty"`
	Objects  []ObjectDocument  `yaml:"objects" toml:"objects"`
	Services []ServiceDocument `yaml:"services,omitempty" toml:"services,omitempty"`
}

// ObjectDocument describes a domain object.
type ObjectDocument struct {
	Name       string              `yaml:"name" toml:"name"`
	Kind       string              `yaml:"kind" toml:"kind"`
	Root       bool                `yaml:"root,omitempty" toml:"root,omitempty"`
	Extends    string              `yaml:"extends,omitempty" toml:"extends,omitempty"`
	Comment    string              `yaml:"comment,omitempty" toml:"comment,omitempty"`
	Attributes []FieldDocument     `yaml:"attributes,omitempty" toml:"attributes,omitempty"`
	References []FieldDocument     `yaml:"references,omitempty" toml:"references,omitempty"`
	Operations []OperationDocument `yaml:"operations,omitempty" toml:"operations,omitempty"`
	Values     []string            `yaml:"values,omitempty" toml:"values,omitempty"`
}

// FieldDocument describes an attribute, reference, parameter or return type.
// Attributes and parameters name their type in Type, references in Target.
type FieldDocument struct {
	Name       string `yaml:"name,omitempty" toml:"name,omitempty"`
	Type       string `yaml:"type,omitempty" toml:"type,omitempty"`
	Target     string `yaml:"target,omitempty" toml:"target,omitempty"`
	Collection string `yaml:"collection,omitempty" toml:"collection,omitempty"`
	Nullable   bool   `yaml:"nullable,omitempty" toml:"nullable,omitempty"`
}

// OperationDocument describes an operation.
type OperationDocument struct {
	Name           string          `yaml:"name" toml:"name"`
	Visibility     string          `yaml:"visibility,omitempty" toml:"visibility,omitempty"`
	Responsibility string          `yaml:"responsibility,omitempty" toml:"responsibility,omitempty"`
	Parameters     []FieldDocument `yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	Returns        *FieldDocument  `yaml:"returns,omitempty" toml:"returns,omitempty"`
}

// ServiceDocument describes a service.
type ServiceDocument struct {
	Name       string              `yaml:"name" toml:"name"`
	Operations []OperationDocument `yaml:"operations,omitempty" toml:"operations,omitempty"`
}

// ApplicationDocument describes an application layer.
type ApplicationDocument struct {
	Name     string            `yaml:"name" toml:"name"`
	Services []ServiceDocument `yaml:"services,omitempty" toml:"services,omitempty"`
	Flows    []FlowDocument    `yaml:"flows,omitempty" toml:"flows,omitempty"`
}

// FlowDocument describes a flow.
type FlowDocument struct {
	Name  string         `yaml:"name" toml:"name"`
	Steps []StepDocument `yaml:"steps" toml:"steps"`
}

// StepDocument is either "events trigger commands" (Events + Commands) or
// "command emits events" (Command + Emits).
type StepDocument struct {
	Events   []string `yaml:"events,omitempty" toml:"events,omitempty"`
	Commands []string `yaml:"commands,omitempty" toml:"commands,omitempty"`
	Command  string   `yaml:"command,omitempty" toml:"command,omitempty"`
	Emits    []string `yaml:"emits,omitempty" toml:"emits,omitempty"`
	Gate     string   `yaml:"gate,omitempty" toml:"gate,omitempty"`
}

// RelationshipDocument describes an upstream/downstream relationship.
type RelationshipDocument struct {
	Name                     string   `yaml:"name,omitempty" toml:"name,omitempty"`
	Upstream                 string   `yaml:"upstream" toml:"upstream"`
	Downstream               string   `yaml:"downstream" toml:"downstream"`
	Exposes                  []string `yaml:"exposes,omitempty" toml:"exposes,omitempty"`
	ImplementationTechnology string   `yaml:"implementation_technology,omitempty" toml:"implementation_technology,omitempty"`
}

// Format of a model document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the document format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.WithHint(
			errors.NewInvalidRequestError("unsupported model file extension %q", filepath.Ext(path)),
			"model documents must end in .yaml, .yml or .toml")
	}
}

// LoadFile reads and resolves a model document.
func LoadFile(path string) (*Model, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("model file %s", path)
		}
		return nil, errors.Wrapf(err, "failed to read model %s", path)
	}
	m, err := Load(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load model %s", path)
	}
	return m, nil
}

// Load decodes a model document and resolves it.
func Load(data []byte, format Format) (*Model, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to parse YAML"), errors.ErrInvalidModel)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to parse TOML"), errors.ErrInvalidModel)
		}
	default:
		return nil, errors.NewInvalidRequestError("unknown model format %q", format)
	}
	return doc.Build()
}

// Build converts the document into a resolved Model.
func (d *Document) Build() (*Model, error) {
	b := NewBuilder(d.ContextMap)
	for _, cd := range d.Contexts {
		cb := b.Context(cd.Name)
		for _, ad := range cd.Aggregates {
			ab := cb.Aggregate(ad.Name).Comment(ad.Comment)
			for _, od := range ad.Objects {
				kind := KindEntity
				if od.Kind != "" {
					k, ok := ParseKind(od.Kind)
					if !ok {
						return nil, errors.WithHint(
							errors.NewInvalidModelError("%s: unknown kind %q", od.Name, od.Kind),
							"kind must be one of entity, value_object, domain_event, command_event, enum, basic_type, dto")
					}
					kind = k
				}
				ob := ab.Object(od.Name, kind).Extends(od.Extends).Comment(od.Comment).Values(od.Values...)
				if od.Root {
					ob.Root()
				}
				for _, f := range od.Attributes {
					opts, err := fieldOptions(f)
					if err != nil {
						return nil, err
					}
					ob.Attr(f.Name, f.Type, opts...)
				}
				for _, f := range od.References {
					opts, err := fieldOptions(f)
					if err != nil {
						return nil, err
					}
					target := f.Target
					if target == "" {
						target = f.Type
					}
					ob.Ref(f.Name, target, opts...)
				}
				for _, opd := range od.Operations {
					if err := addOperation(ob.Op(opd.Name), opd); err != nil {
						return nil, err
					}
				}
			}
			for _, sd := range ad.Services {
				if err := addService(ab.Service(sd.Name), sd); err != nil {
					return nil, err
				}
			}
		}
		if cd.Application != nil {
			app := cb.Application(cd.Application.Name)
			for _, sd := range cd.Application.Services {
				if err := addService(app.Service(sd.Name), sd); err != nil {
					return nil, err
				}
			}
			for _, fd := range cd.Application.Flows {
				steps := make([]FlowStep, 0, len(fd.Steps))
				for i, sd := range fd.Steps {
					step, err := sd.step()
					if err != nil {
						return nil, errors.Wrapf(err, "flow %s step %d", fd.Name, i+1)
					}
					steps = append(steps, step)
				}
				app.Flow(fd.Name, steps...)
			}
		}
	}
	for _, rd := range d.Relationships {
		b.Relationship(rd.Upstream, rd.Downstream).
			Named(rd.Name).
			Exposes(rd.Exposes...).
			Technology(rd.ImplementationTechnology)
	}
	return b.Build()
}

func addService(sb *ServiceBuilder, sd ServiceDocument) error {
	for _, opd := range sd.Operations {
		if err := addOperation(sb.Op(opd.Name), opd); err != nil {
			return err
		}
	}
	return nil
}

func addOperation(op *OperationBuilder, od OperationDocument) error {
	vis, err := parseVisibility(od.Visibility)
	if err != nil {
		return errors.Wrapf(err, "operation %s", od.Name)
	}
	op.Visibility(vis).Responsibility(od.Responsibility)
	for _, p := range od.Parameters {
		opts, err := fieldOptions(p)
		if err != nil {
			return err
		}
		op.Param(p.Name, p.Type, opts...)
	}
	if od.Returns != nil {
		opts, err := fieldOptions(*od.Returns)
		if err != nil {
			return err
		}
		op.Returns(od.Returns.Type, opts...)
	}
	return nil
}

func fieldOptions(f FieldDocument) ([]FieldOption, error) {
	var opts []FieldOption
	switch strings.ToLower(f.Collection) {
	case "":
	case "list":
		opts = append(opts, List())
	case "set":
		opts = append(opts, Set())
	default:
		return nil, errors.NewInvalidModelError("%s: unknown collection %q (want list or set)", f.Name, f.Collection)
	}
	if f.Nullable {
		opts = append(opts, Nullable())
	}
	return opts, nil
}

func parseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(s) {
	case "", "public":
		return VisibilityPublic, nil
	case "protected":
		return VisibilityProtected, nil
	case "private":
		return VisibilityPrivate, nil
	case "package":
		return VisibilityPackage, nil
	default:
		return 0, errors.NewInvalidModelError("unknown visibility %q", s)
	}
}

func (s StepDocument) step() (FlowStep, error) {
	gate, ok := ParseGate(strings.ToLower(s.Gate))
	if !ok {
		return nil, errors.NewInvalidModelError("unknown gate %q", s.Gate)
	}
	switch {
	case s.Command != "" && len(s.Emits) > 0:
		return EventProduction{Command: s.Command, Events: s.Emits, Gate: gate}, nil
	case len(s.Events) > 0 && len(s.Commands) > 0:
		return CommandInvocation{Events: s.Events, Commands: s.Commands, Gate: gate}, nil
	default:
		return nil, errors.WithHint(
			errors.NewInvalidModelError("step is neither an event trigger nor an event emission"),
			"use events+commands for 'event triggers command' or command+emits for 'command emits event'")
	}
}
