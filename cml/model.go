// Package cml holds the resolved domain model that contracts are generated from.
//
// The model is an arena: bounded contexts, aggregates, domain objects and
// services live in slices and are addressed by stable integer IDs. Container
// relationships (object → aggregate, aggregate → context) are kept in separate
// lookup indices instead of back-pointers, so the model is read-only once
// built and cycle detection reduces to a set of IDs or names.
//
// Models are created with a Builder (see builder.go) or loaded from a YAML or
// TOML document (see load.go). Parsing CML itself is out of scope.
package cml

// ContextID addresses a bounded context in a Model.
type ContextID int

// AggregateID addresses an aggregate in a Model.
type AggregateID int

// ObjectID addresses a domain object in a Model.
type ObjectID int

// ServiceID addresses a domain or application service in a Model.
type ServiceID int

// NoObject marks an absent object reference (unresolved type, no supertype).
const NoObject ObjectID = -1

// Kind is the closed set of domain object kinds.
type Kind int

const (
	KindEntity Kind = iota
	KindValueObject
	KindDomainEvent
	KindCommandEvent
	KindEnum
	KindBasicType
	KindDTO
)

var kindNames = map[Kind]string{
	KindEntity:       "entity",
	KindValueObject:  "value_object",
	KindDomainEvent:  "domain_event",
	KindCommandEvent: "command_event",
	KindEnum:         "enum",
	KindBasicType:    "basic_type",
	KindDTO:          "dto",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a document kind name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Collection describes how many values an attribute or type reference holds.
type Collection int

const (
	CollectionNone Collection = iota
	CollectionList
	CollectionSet
)

// IsCollection reports whether c holds more than one value.
func (c Collection) IsCollection() bool {
	return c != CollectionNone
}

// Visibility of an operation. Only public operations are exposed.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
	VisibilityPackage
)

// Attribute is a primitive-typed field of a domain object.
type Attribute struct {
	Name       string
	Type       string
	Collection Collection
	Nullable   bool
}

// Reference is a field whose type is another domain object.
type Reference struct {
	Name       string
	Target     ObjectID
	Collection Collection
	Nullable   bool
}

// TypeRef is an operation parameter or return type as written in the model.
// Object is NoObject for primitive and unresolved types.
type TypeRef struct {
	Name       string
	Object     ObjectID
	Collection Collection
}

// Parameter of an operation.
type Parameter struct {
	Name string
	Type TypeRef
}

// Operation on an aggregate root or service.
type Operation struct {
	Name           string
	Visibility     Visibility
	Parameters     []Parameter
	Returns        *TypeRef
	Responsibility string
}

// IsPublic reports whether the operation can be exposed in a contract.
func (o Operation) IsPublic() bool {
	return o.Visibility == VisibilityPublic
}

// DomainObject is an entity, value object, event, enum, basic type or DTO.
type DomainObject struct {
	ID            ObjectID
	Name          string
	Kind          Kind
	AggregateRoot bool
	Extends       ObjectID
	Attributes    []Attribute
	References    []Reference
	Operations    []Operation
	Values        []string
	Comment       string
}

// Service groups operations, either inside an aggregate or in the application layer.
type Service struct {
	ID         ServiceID
	Name       string
	Operations []Operation
}

// Aggregate is a consistency boundary owning domain objects and services.
type Aggregate struct {
	ID       AggregateID
	Name     string
	Objects  []ObjectID
	Services []ServiceID
	Comment  string
}

// Application is the application layer of a bounded context.
type Application struct {
	Name     string
	Services []ServiceID
	Flows    []Flow
}

// BoundedContext groups aggregates and an optional application layer.
type BoundedContext struct {
	ID          ContextID
	Name        string
	Aggregates  []AggregateID
	Application *Application
}

// Relationship is an upstream/downstream relationship between two contexts.
type Relationship struct {
	Name                     string
	Upstream                 ContextID
	Downstream               ContextID
	Exposed                  []AggregateID
	ImplementationTechnology string
}

// Model is the read-only, name-resolved domain model.
type Model struct {
	Name string

	contexts      []BoundedContext
	aggregates    []Aggregate
	objects       []DomainObject
	services      []Service
	relationships []Relationship

	// lookup indices
	containerOf      map[ObjectID]AggregateID
	contextOf        map[AggregateID]ContextID
	objectsByName    map[string]ObjectID
	contextsByName   map[string]ContextID
	aggregatesByName map[string]AggregateID
}

// Contexts returns all bounded contexts in declaration order.
func (m *Model) Contexts() []BoundedContext {
	return m.contexts
}

// Context returns the bounded context with the given ID.
func (m *Model) Context(id ContextID) BoundedContext {
	return m.contexts[id]
}

// ContextByName looks up a bounded context by name.
func (m *Model) ContextByName(name string) (ContextID, bool) {
	id, ok := m.contextsByName[name]
	return id, ok
}

// Aggregate returns the aggregate with the given ID.
func (m *Model) Aggregate(id AggregateID) Aggregate {
	return m.aggregates[id]
}

// AggregateByName looks up an aggregate by name.
func (m *Model) AggregateByName(name string) (AggregateID, bool) {
	id, ok := m.aggregatesByName[name]
	return id, ok
}

// Object returns the domain object with the given ID.
func (m *Model) Object(id ObjectID) DomainObject {
	return m.objects[id]
}

// ObjectByName looks up a domain object by name. When several objects share
// a name the first declared one wins.
func (m *Model) ObjectByName(name string) (ObjectID, bool) {
	id, ok := m.objectsByName[name]
	return id, ok
}

// Service returns the service with the given ID.
func (m *Model) Service(id ServiceID) Service {
	return m.services[id]
}

// Relationships returns all relationships in declaration order.
func (m *Model) Relationships() []Relationship {
	return m.relationships
}

// ContainerOf returns the aggregate owning an object.
func (m *Model) ContainerOf(id ObjectID) (AggregateID, bool) {
	agg, ok := m.containerOf[id]
	return agg, ok
}

// ContextOf returns the bounded context owning an aggregate.
func (m *Model) ContextOf(id AggregateID) (ContextID, bool) {
	ctx, ok := m.contextOf[id]
	return ctx, ok
}

// AggregateRoot returns the aggregate root entity of an aggregate.
func (m *Model) AggregateRoot(id AggregateID) (ObjectID, bool) {
	for _, obj := range m.aggregates[id].Objects {
		if m.objects[obj].AggregateRoot {
			return obj, true
		}
	}
	return NoObject, false
}

// ExposedAggregates returns the aggregates a context exposes through upstream
// relationships, deduplicated, in declaration order.
func (m *Model) ExposedAggregates(id ContextID) []AggregateID {
	seen := make(map[AggregateID]bool)
	var out []AggregateID
	for _, rel := range m.relationships {
		if rel.Upstream != id {
			continue
		}
		for _, agg := range rel.Exposed {
			if !seen[agg] {
				seen[agg] = true
				out = append(out, agg)
			}
		}
	}
	return out
}

// UpstreamRelationships returns the relationships in which a context is upstream.
func (m *Model) UpstreamRelationships(id ContextID) []Relationship {
	var out []Relationship
	for _, rel := range m.relationships {
		if rel.Upstream == id {
			out = append(out, rel)
		}
	}
	return out
}

// Downstreams returns the downstream contexts of a context, deduplicated, in
// relationship declaration order.
func (m *Model) Downstreams(id ContextID) []ContextID {
	seen := make(map[ContextID]bool)
	var out []ContextID
	for _, rel := range m.relationships {
		if rel.Upstream == id && !seen[rel.Downstream] {
			seen[rel.Downstream] = true
			out = append(out, rel.Downstream)
		}
	}
	return out
}

// ExposingContexts returns the contexts that have something to generate a
// contract for: exposed aggregates or an application layer with services or
// flows.
func (m *Model) ExposingContexts() []ContextID {
	var out []ContextID
	for _, bc := range m.contexts {
		app := bc.Application
		if len(m.ExposedAggregates(bc.ID)) > 0 || (app != nil && (len(app.Services) > 0 || len(app.Flows) > 0)) {
			out = append(out, bc.ID)
		}
	}
	return out
}
