package cml

import (
	"github.com/teranos/contractgen/errors"
)

// Builder constructs a Model by name. Names are resolved to IDs in Build, so
// objects may reference each other in any declaration order.
//
//	b := cml.NewBuilder("InsuranceContextMap")
//	customers := b.Context("CustomerManagement").Aggregate("Customers")
//	customer := customers.Entity("Customer").Root()
//	customer.Attr("firstname", "String")
//	customer.Ref("addresses", "Address", cml.List())
//	customer.Op("createAddress").Param("address", "Address").Returns("Address")
//	customers.ValueObject("Address").Attr("street", "String")
//	b.Relationship("CustomerManagement", "PolicyManagement").Exposes("Customers")
//	model, err := b.Build()
type Builder struct {
	name          string
	contexts      []*ContextBuilder
	relationships []*RelationshipBuilder
}

// NewBuilder starts a model for the named context map.
func NewBuilder(contextMap string) *Builder {
	return &Builder{name: contextMap}
}

// ContextBuilder declares a bounded context.
type ContextBuilder struct {
	name       string
	aggregates []*AggregateBuilder
	app        *ApplicationBuilder
}

// AggregateBuilder declares an aggregate.
type AggregateBuilder struct {
	name     string
	comment  string
	objects  []*ObjectBuilder
	services []*ServiceBuilder
}

// ObjectBuilder declares a domain object.
type ObjectBuilder struct {
	name    string
	kind    Kind
	root    bool
	extends string
	comment string
	attrs   []Attribute
	refs    []refSpec
	ops     []*OperationBuilder
	values  []string
}

// ServiceBuilder declares a domain or application service.
type ServiceBuilder struct {
	name string
	ops  []*OperationBuilder
}

// OperationBuilder declares an operation.
type OperationBuilder struct {
	name           string
	visibility     Visibility
	params         []paramSpec
	returns        *typeSpec
	responsibility string
}

// ApplicationBuilder declares the application layer of a context.
type ApplicationBuilder struct {
	name     string
	services []*ServiceBuilder
	flows    []Flow
}

// RelationshipBuilder declares an upstream/downstream relationship.
type RelationshipBuilder struct {
	name       string
	upstream   string
	downstream string
	exposed    []string
	technology string
}

type refSpec struct {
	name   string
	target string
	opts   fieldOpts
}

type paramSpec struct {
	name string
	typ  typeSpec
}

type typeSpec struct {
	name       string
	collection Collection
}

type fieldOpts struct {
	collection Collection
	nullable   bool
}

// FieldOption modifies an attribute, reference, parameter or return type.
type FieldOption func(*fieldOpts)

// List marks a field as an ordered collection.
func List() FieldOption {
	return func(o *fieldOpts) { o.collection = CollectionList }
}

// Set marks a field as an unordered collection.
func Set() FieldOption {
	return func(o *fieldOpts) { o.collection = CollectionSet }
}

// Nullable marks a field as optional.
func Nullable() FieldOption {
	return func(o *fieldOpts) { o.nullable = true }
}

func applyOpts(opts []FieldOption) fieldOpts {
	var fo fieldOpts
	for _, opt := range opts {
		opt(&fo)
	}
	return fo
}

// Context returns the builder for the named bounded context, creating it on
// first use.
func (b *Builder) Context(name string) *ContextBuilder {
	for _, c := range b.contexts {
		if c.name == name {
			return c
		}
	}
	c := &ContextBuilder{name: name}
	b.contexts = append(b.contexts, c)
	return c
}

// Relationship declares that upstream serves downstream.
func (b *Builder) Relationship(upstream, downstream string) *RelationshipBuilder {
	r := &RelationshipBuilder{upstream: upstream, downstream: downstream}
	b.relationships = append(b.relationships, r)
	return r
}

// Named sets the relationship name.
func (r *RelationshipBuilder) Named(name string) *RelationshipBuilder {
	r.name = name
	return r
}

// Exposes adds aggregates of the upstream context to the relationship.
func (r *RelationshipBuilder) Exposes(aggregates ...string) *RelationshipBuilder {
	r.exposed = append(r.exposed, aggregates...)
	return r
}

// Technology sets the implementation technology, used as the endpoint protocol.
func (r *RelationshipBuilder) Technology(tech string) *RelationshipBuilder {
	r.technology = tech
	return r
}

// Aggregate returns the builder for the named aggregate, creating it on first use.
func (c *ContextBuilder) Aggregate(name string) *AggregateBuilder {
	for _, a := range c.aggregates {
		if a.name == name {
			return a
		}
	}
	a := &AggregateBuilder{name: name}
	c.aggregates = append(c.aggregates, a)
	return a
}

// Application returns the application layer builder, creating it on first use.
func (c *ContextBuilder) Application(name string) *ApplicationBuilder {
	if c.app == nil {
		c.app = &ApplicationBuilder{name: name}
	}
	return c.app
}

// Comment attaches a comment to the aggregate.
func (a *AggregateBuilder) Comment(text string) *AggregateBuilder {
	a.comment = text
	return a
}

// Object declares a domain object of the given kind.
func (a *AggregateBuilder) Object(name string, kind Kind) *ObjectBuilder {
	o := &ObjectBuilder{name: name, kind: kind}
	a.objects = append(a.objects, o)
	return o
}

// Entity declares an entity.
func (a *AggregateBuilder) Entity(name string) *ObjectBuilder {
	return a.Object(name, KindEntity)
}

// ValueObject declares a value object.
func (a *AggregateBuilder) ValueObject(name string) *ObjectBuilder {
	return a.Object(name, KindValueObject)
}

// DomainEvent declares a domain event.
func (a *AggregateBuilder) DomainEvent(name string) *ObjectBuilder {
	return a.Object(name, KindDomainEvent)
}

// CommandEvent declares a command event.
func (a *AggregateBuilder) CommandEvent(name string) *ObjectBuilder {
	return a.Object(name, KindCommandEvent)
}

// Enum declares an enum with the given literals.
func (a *AggregateBuilder) Enum(name string, values ...string) *ObjectBuilder {
	o := a.Object(name, KindEnum)
	o.values = append(o.values, values...)
	return o
}

// Service declares a domain service inside the aggregate.
func (a *AggregateBuilder) Service(name string) *ServiceBuilder {
	s := &ServiceBuilder{name: name}
	a.services = append(a.services, s)
	return s
}

// Root marks the object as the aggregate root.
func (o *ObjectBuilder) Root() *ObjectBuilder {
	o.root = true
	return o
}

// Extends sets the supertype by name.
func (o *ObjectBuilder) Extends(name string) *ObjectBuilder {
	o.extends = name
	return o
}

// Comment attaches a comment to the object.
func (o *ObjectBuilder) Comment(text string) *ObjectBuilder {
	o.comment = text
	return o
}

// Values appends enum literals.
func (o *ObjectBuilder) Values(values ...string) *ObjectBuilder {
	o.values = append(o.values, values...)
	return o
}

// Attr adds a primitive-typed attribute.
func (o *ObjectBuilder) Attr(name, typ string, opts ...FieldOption) *ObjectBuilder {
	fo := applyOpts(opts)
	o.attrs = append(o.attrs, Attribute{Name: name, Type: typ, Collection: fo.collection, Nullable: fo.nullable})
	return o
}

// Ref adds a reference to another domain object, resolved by name in Build.
func (o *ObjectBuilder) Ref(name, target string, opts ...FieldOption) *ObjectBuilder {
	o.refs = append(o.refs, refSpec{name: name, target: target, opts: applyOpts(opts)})
	return o
}

// Op declares an operation on the object.
func (o *ObjectBuilder) Op(name string) *OperationBuilder {
	op := &OperationBuilder{name: name}
	o.ops = append(o.ops, op)
	return op
}

// Op declares an operation on the service.
func (s *ServiceBuilder) Op(name string) *OperationBuilder {
	op := &OperationBuilder{name: name}
	s.ops = append(s.ops, op)
	return op
}

// Param appends a parameter.
func (op *OperationBuilder) Param(name, typ string, opts ...FieldOption) *OperationBuilder {
	fo := applyOpts(opts)
	op.params = append(op.params, paramSpec{name: name, typ: typeSpec{name: typ, collection: fo.collection}})
	return op
}

// Returns sets the return type.
func (op *OperationBuilder) Returns(typ string, opts ...FieldOption) *OperationBuilder {
	fo := applyOpts(opts)
	op.returns = &typeSpec{name: typ, collection: fo.collection}
	return op
}

// Visibility sets the operation visibility; operations are public by default.
func (op *OperationBuilder) Visibility(v Visibility) *OperationBuilder {
	op.visibility = v
	return op
}

// Private is shorthand for Visibility(VisibilityPrivate).
func (op *OperationBuilder) Private() *OperationBuilder {
	return op.Visibility(VisibilityPrivate)
}

// Responsibility sets the responsibility hint rendered with the operation.
func (op *OperationBuilder) Responsibility(text string) *OperationBuilder {
	op.responsibility = text
	return op
}

// Service declares an application service.
func (app *ApplicationBuilder) Service(name string) *ServiceBuilder {
	s := &ServiceBuilder{name: name}
	app.services = append(app.services, s)
	return s
}

// Flow declares an orchestration flow.
func (app *ApplicationBuilder) Flow(name string, steps ...FlowStep) *ApplicationBuilder {
	app.flows = append(app.flows, Flow{Name: name, Steps: steps})
	return app
}

// Build assigns IDs, resolves names and returns the read-only model.
func (b *Builder) Build() (*Model, error) {
	m := &Model{
		Name:             b.name,
		containerOf:      make(map[ObjectID]AggregateID),
		contextOf:        make(map[AggregateID]ContextID),
		objectsByName:    make(map[string]ObjectID),
		contextsByName:   make(map[string]ContextID),
		aggregatesByName: make(map[string]AggregateID),
	}

	// first pass: allocate IDs and name indices
	objectIDs := make(map[*ObjectBuilder]ObjectID)
	aggregateObjects := make(map[AggregateID]map[string]ObjectID)
	for _, cb := range b.contexts {
		if cb.name == "" {
			return nil, errors.NewInvalidModelError("bounded context without a name")
		}
		ctxID := ContextID(len(m.contexts))
		m.contexts = append(m.contexts, BoundedContext{ID: ctxID, Name: cb.name})
		m.contextsByName[cb.name] = ctxID

		for _, ab := range cb.aggregates {
			aggID := AggregateID(len(m.aggregates))
			m.aggregates = append(m.aggregates, Aggregate{ID: aggID, Name: ab.name, Comment: ab.comment})
			m.contexts[ctxID].Aggregates = append(m.contexts[ctxID].Aggregates, aggID)
			m.contextOf[aggID] = ctxID
			if _, dup := m.aggregatesByName[ab.name]; !dup {
				m.aggregatesByName[ab.name] = aggID
			}
			local := make(map[string]ObjectID)
			aggregateObjects[aggID] = local

			for _, ob := range ab.objects {
				if ob.name == "" {
					return nil, errors.NewInvalidModelError("domain object without a name in aggregate %q", ab.name)
				}
				objID := ObjectID(len(m.objects))
				objectIDs[ob] = objID
				m.objects = append(m.objects, DomainObject{
					ID:            objID,
					Name:          ob.name,
					Kind:          ob.kind,
					AggregateRoot: ob.root,
					Extends:       NoObject,
					Attributes:    ob.attrs,
					Values:        ob.values,
					Comment:       ob.comment,
				})
				m.aggregates[aggID].Objects = append(m.aggregates[aggID].Objects, objID)
				m.containerOf[objID] = aggID
				if _, dup := local[ob.name]; !dup {
					local[ob.name] = objID
				}
				if _, dup := m.objectsByName[ob.name]; !dup {
					m.objectsByName[ob.name] = objID
				}
			}
		}
	}
	for i, cb := range b.contexts {
		if first := m.contextsByName[cb.name]; int(first) != i {
			return nil, errors.NewInvalidModelError("bounded context %q declared twice", cb.name)
		}
	}

	// resolve prefers the declaring aggregate, then the whole model
	resolve := func(agg AggregateID, name string) (ObjectID, bool) {
		if id, ok := aggregateObjects[agg][name]; ok {
			return id, true
		}
		id, ok := m.objectsByName[name]
		return id, ok
	}

	// second pass: objects, services, applications
	for _, cb := range b.contexts {
		ctxID := m.contextsByName[cb.name]
		for ai, ab := range cb.aggregates {
			aggID := m.contexts[ctxID].Aggregates[ai]
			for _, ob := range ab.objects {
				objID := objectIDs[ob]
				obj := &m.objects[objID]
				if ob.extends != "" {
					super, ok := resolve(aggID, ob.extends)
					if !ok {
						return nil, errors.NewInvalidModelError("%s extends unknown type %q", ob.name, ob.extends)
					}
					if super == objID {
						return nil, errors.NewInvalidModelError("%s extends itself", ob.name)
					}
					obj.Extends = super
				}
				for _, ref := range ob.refs {
					target, ok := resolve(aggID, ref.target)
					if !ok {
						return nil, errors.WithHintf(
							errors.NewInvalidModelError("%s.%s references unknown type %q", ob.name, ref.name, ref.target),
							"declare %s as a domain object or use an attribute for primitive types", ref.target)
					}
					obj.References = append(obj.References, Reference{
						Name:       ref.name,
						Target:     target,
						Collection: ref.opts.collection,
						Nullable:   ref.opts.nullable,
					})
				}
				obj.Operations = m.buildOperations(aggID, ob.ops, resolve)
			}
			for _, sb := range ab.services {
				svcID := m.addService(aggID, sb, resolve)
				m.aggregates[aggID].Services = append(m.aggregates[aggID].Services, svcID)
			}
		}
		if cb.app != nil {
			app := &Application{Name: cb.app.name, Flows: cb.app.flows}
			for _, sb := range cb.app.services {
				app.Services = append(app.Services, m.addService(-1, sb, resolve))
			}
			m.contexts[ctxID].Application = app
		}
	}

	for _, rb := range b.relationships {
		rel, err := m.buildRelationship(rb)
		if err != nil {
			return nil, err
		}
		m.relationships = append(m.relationships, rel)
	}
	return m, nil
}

func (m *Model) addService(agg AggregateID, sb *ServiceBuilder, resolve func(AggregateID, string) (ObjectID, bool)) ServiceID {
	id := ServiceID(len(m.services))
	m.services = append(m.services, Service{ID: id, Name: sb.name, Operations: m.buildOperations(agg, sb.ops, resolve)})
	return id
}

func (m *Model) buildOperations(agg AggregateID, ops []*OperationBuilder, resolve func(AggregateID, string) (ObjectID, bool)) []Operation {
	typeRef := func(ts typeSpec) TypeRef {
		ref := TypeRef{Name: ts.name, Object: NoObject, Collection: ts.collection}
		if id, ok := resolve(agg, ts.name); ok {
			ref.Object = id
		}
		return ref
	}
	out := make([]Operation, 0, len(ops))
	for _, ob := range ops {
		op := Operation{Name: ob.name, Visibility: ob.visibility, Responsibility: ob.responsibility}
		for _, p := range ob.params {
			op.Parameters = append(op.Parameters, Parameter{Name: p.name, Type: typeRef(p.typ)})
		}
		if ob.returns != nil {
			ret := typeRef(*ob.returns)
			op.Returns = &ret
		}
		out = append(out, op)
	}
	return out
}

func (m *Model) buildRelationship(rb *RelationshipBuilder) (Relationship, error) {
	up, ok := m.contextsByName[rb.upstream]
	if !ok {
		return Relationship{}, errors.NewInvalidModelError("relationship references unknown upstream context %q", rb.upstream)
	}
	down, ok := m.contextsByName[rb.downstream]
	if !ok {
		return Relationship{}, errors.NewInvalidModelError("relationship references unknown downstream context %q", rb.downstream)
	}
	if up == down {
		return Relationship{}, errors.NewInvalidModelError("context %q cannot be upstream of itself", rb.upstream)
	}
	rel := Relationship{
		Name:                     rb.name,
		Upstream:                 up,
		Downstream:               down,
		ImplementationTechnology: rb.technology,
	}
	for _, name := range rb.exposed {
		agg, found := AggregateID(-1), false
		for _, id := range m.contexts[up].Aggregates {
			if m.aggregates[id].Name == name {
				agg, found = id, true
				break
			}
		}
		if !found {
			return Relationship{}, errors.WithHintf(
				errors.NewInvalidModelError("relationship %s -> %s exposes unknown aggregate %q", rb.upstream, rb.downstream, name),
				"exposed aggregates must belong to the upstream context %s", rb.upstream)
		}
		rel.Exposed = append(rel.Exposed, agg)
	}
	return rel, nil
}
