package contract

import (
	"fmt"

	"github.com/teranos/contractgen/cml"
	"github.com/teranos/contractgen/errors"
)

const (
	// DefaultEndpointLocation is offered when no location is configured.
	DefaultEndpointLocation = "http://localhost:8000"

	// DefaultProtocol is used when a relationship names no implementation technology.
	DefaultProtocol = "tbd"
)

// Options tune the parts of a contract the domain model does not determine.
type Options struct {
	APIVersion       string
	EndpointLocation string
	DefaultProtocol  string
}

func (o Options) withDefaults() Options {
	if o.EndpointLocation == "" {
		o.EndpointLocation = DefaultEndpointLocation
	}
	if o.DefaultProtocol == "" {
		o.DefaultProtocol = DefaultProtocol
	}
	return o
}

// Walker derives ContractModels from a domain model. A Walker is read-only
// and may be reused for every context of the model.
type Walker struct {
	model *cml.Model
	opts  Options
}

// NewWalker creates a walker over model.
func NewWalker(model *cml.Model, opts Options) *Walker {
	return &Walker{model: model, opts: opts.withDefaults()}
}

// WalkContext resolves a bounded context by name and walks it.
func (w *Walker) WalkContext(name string) (*ContractModel, error) {
	if name == "" {
		return nil, inputError(MissingParameter, "", "no bounded context given")
	}
	id, ok := w.model.ContextByName(name)
	if !ok {
		return nil, inputError(UnknownContext, name, "bounded context %q does not exist in context map %q", name, w.model.Name)
	}
	return w.Walk(id)
}

// Walk builds the contract of one bounded context.
//
// Input errors are checked in a fixed order: no exposed aggregates, no
// aggregate roots, no operations, unsupported flow shapes. An application
// flow counts as input even when the context exposes no operation.
func (w *Walker) Walk(id cml.ContextID) (*ContractModel, error) {
	bc := w.model.Context(id)
	exposed := w.model.ExposedAggregates(id)

	var appServices []cml.ServiceID
	if bc.Application != nil {
		appServices = bc.Application.Services
	}

	if len(exposed) == 0 && bc.Application == nil {
		return nil, inputError(NoExposedAggregates, bc.Name,
			"context exposes no aggregates in any upstream relationship and has no application layer")
	}

	hasRoot := false
	for _, agg := range exposed {
		if _, ok := w.model.AggregateRoot(agg); ok {
			hasRoot = true
			break
		}
	}
	if !hasRoot && bc.Application == nil {
		return nil, inputError(NoAggregateRoots, bc.Name, "none of the exposed aggregates has an aggregate root")
	}

	st := newWalkState(w.model, &ContractModel{
		Name:           bc.Name,
		ContextMapName: w.model.Name,
		APIVersion:     w.opts.APIVersion,
	})

	aggregateEndpoints := make(map[cml.AggregateID]*EndpointContract)
	for _, agg := range exposed {
		ops := w.aggregateOperations(agg)
		if len(ops) == 0 {
			continue
		}
		ep := st.endpoint(w.model.Aggregate(agg).Name, ops)
		aggregateEndpoints[agg] = ep
	}
	var serviceEndpoints []*EndpointContract
	for _, svcID := range appServices {
		svc := w.model.Service(svcID)
		ops := publicOperations(svc.Operations)
		if len(ops) == 0 {
			continue
		}
		serviceEndpoints = append(serviceEndpoints, st.endpoint(svc.Name, ops))
	}

	if len(st.out.Endpoints) == 0 && (bc.Application == nil || len(bc.Application.Flows) == 0) {
		return nil, inputError(NoOperationsFound, bc.Name,
			"no public operation on any exposed aggregate root or service, and no application flow")
	}

	if bc.Application != nil {
		flows, err := expandFlows(bc.Name, bc.Application.Flows)
		if err != nil {
			return nil, err
		}
		st.out.Flows = flows
	}

	st.out.Providers = w.providers(id, bc.Name, exposed, aggregateEndpoints, serviceEndpoints)
	st.out.Clients = w.clients(id, aggregateEndpoints)

	if err := checkUniqueDataTypes(st.out); err != nil {
		return nil, err
	}
	return st.out, nil
}

// aggregateOperations lists the public operations of the aggregate root
// followed by those of the aggregate's services.
func (w *Walker) aggregateOperations(agg cml.AggregateID) []cml.Operation {
	var ops []cml.Operation
	if root, ok := w.model.AggregateRoot(agg); ok {
		ops = append(ops, publicOperations(w.model.Object(root).Operations)...)
	}
	for _, svcID := range w.model.Aggregate(agg).Services {
		ops = append(ops, publicOperations(w.model.Service(svcID).Operations)...)
	}
	return ops
}

func publicOperations(ops []cml.Operation) []cml.Operation {
	var out []cml.Operation
	for _, op := range ops {
		if op.IsPublic() {
			out = append(out, op)
		}
	}
	return out
}

func (w *Walker) providers(
	id cml.ContextID,
	name string,
	exposed []cml.AggregateID,
	aggregateEndpoints map[cml.AggregateID]*EndpointContract,
	serviceEndpoints []*EndpointContract,
) []*EndpointProvider {
	provider := &EndpointProvider{Name: name + "Provider"}
	for _, agg := range exposed {
		ep, ok := aggregateEndpoints[agg]
		if !ok {
			continue
		}
		provider.Offers = append(provider.Offers, w.offer(ep, w.technology(id, agg)))
	}
	for _, ep := range serviceEndpoints {
		provider.Offers = append(provider.Offers, w.offer(ep, ""))
	}
	if len(provider.Offers) == 0 {
		return nil
	}
	return []*EndpointProvider{provider}
}

func (w *Walker) offer(ep *EndpointContract, technology string) EndpointOffer {
	offer := EndpointOffer{Endpoint: ep, Location: w.opts.EndpointLocation, Protocol: technology}
	if technology == "" {
		offer.Protocol = w.opts.DefaultProtocol
		offer.ProtocolComment = "no implementation technology specified in the context map"
	}
	return offer
}

// technology returns the implementation technology of the first upstream
// relationship that exposes agg and names one.
func (w *Walker) technology(id cml.ContextID, agg cml.AggregateID) string {
	for _, rel := range w.model.UpstreamRelationships(id) {
		if rel.ImplementationTechnology == "" {
			continue
		}
		for _, exposed := range rel.Exposed {
			if exposed == agg {
				return rel.ImplementationTechnology
			}
		}
	}
	return ""
}

func (w *Walker) clients(id cml.ContextID, aggregateEndpoints map[cml.AggregateID]*EndpointContract) []*EndpointClient {
	var clients []*EndpointClient
	for _, down := range w.model.Downstreams(id) {
		client := &EndpointClient{Name: w.model.Context(down).Name + "Client"}
		seen := make(map[string]bool)
		for _, rel := range w.model.UpstreamRelationships(id) {
			if rel.Downstream != down {
				continue
			}
			for _, agg := range rel.Exposed {
				ep, ok := aggregateEndpoints[agg]
				if !ok || seen[ep.Name] {
					continue
				}
				seen[ep.Name] = true
				client.Consumes = append(client.Consumes, ep.Name)
			}
		}
		if len(client.Consumes) > 0 {
			clients = append(clients, client)
		}
	}
	return clients
}

func checkUniqueDataTypes(m *ContractModel) error {
	seen := make(map[string]bool, len(m.DataTypes))
	for _, dt := range m.DataTypes {
		if seen[dt.Name] {
			return errors.AssertionFailedf("data type %q registered twice in contract %s", dt.Name, m.Name)
		}
		seen[dt.Name] = true
	}
	return nil
}

// walkState carries the per-walk memo of data types. Every data type is
// registered in visited and in the model before its attributes are
// populated; population runs off a queue so cycles of any length terminate
// without recursion.
type walkState struct {
	model      *cml.Model
	out        *ContractModel
	visited    map[string]*DataType
	primitives map[string]*DataType
	queue      []pendingType
}

type pendingType struct {
	dt  *DataType
	obj cml.ObjectID
}

func newWalkState(model *cml.Model, out *ContractModel) *walkState {
	return &walkState{
		model:      model,
		out:        out,
		visited:    make(map[string]*DataType),
		primitives: make(map[string]*DataType),
	}
}

func (st *walkState) endpoint(name string, ops []cml.Operation) *EndpointContract {
	ep := &EndpointContract{Name: name}
	for _, op := range ops {
		ep.Operations = append(ep.Operations, st.operation(op))
		st.drain()
	}
	st.out.Endpoints = append(st.out.Endpoints, ep)
	return ep
}

func (st *walkState) operation(op cml.Operation) *EndpointOperation {
	eo := &EndpointOperation{Name: op.Name, Responsibility: op.Responsibility}

	switch len(op.Parameters) {
	case 0:
	case 1:
		p := op.Parameters[0]
		eo.Expecting = st.typeRef(p.Type)
		eo.ExpectingCollection = p.Type.Collection.IsCollection()
	default:
		eo.Expecting = st.parameterType(op)
	}

	if op.Returns != nil && op.Returns.Name != "" && op.Returns.Name != "void" {
		eo.Delivering = st.typeRef(*op.Returns)
		eo.DeliveringCollection = op.Returns.Collection.IsCollection()
	}
	return eo
}

// parameterType synthesizes "<operation>Parameter" for operations with more
// than one parameter.
func (st *walkState) parameterType(op cml.Operation) *DataType {
	name := op.Name + "Parameter"
	if dt, ok := st.visited[name]; ok {
		return dt
	}
	dt := st.register(name)
	for _, p := range op.Parameters {
		ref := st.typeRef(p.Type)
		dt.Attributes = append(dt.Attributes, DataTypeAttribute{
			Name:         p.Name,
			TypeName:     ref.Name,
			IsCollection: p.Type.Collection.IsCollection(),
			IsReference:  !ref.IsPrimitive,
		})
	}
	return dt
}

// typeRef resolves an operation type to a data type.
func (st *walkState) typeRef(ref cml.TypeRef) *DataType {
	if ref.Object != cml.NoObject {
		return st.objectType(ref.Object)
	}
	return st.namedType(ref.Name)
}

// namedType resolves a type known only by name: a primitive, a domain object
// found by name, or an abstract placeholder.
func (st *walkState) namedType(name string) *DataType {
	if IsPrimitiveTypeName(name) {
		if dt, ok := st.primitives[name]; ok {
			return dt
		}
		dt := &DataType{Name: name, IsPrimitive: true}
		st.primitives[name] = dt
		return dt
	}
	if id, ok := st.model.ObjectByName(name); ok {
		return st.objectType(id)
	}
	if dt, ok := st.visited[name]; ok {
		return dt
	}
	dt := st.register(name)
	dt.IsAbstract = true
	dt.Comments = abstractComment(name)
	return dt
}

func (st *walkState) objectType(id cml.ObjectID) *DataType {
	obj := st.model.Object(id)
	if dt, ok := st.visited[obj.Name]; ok {
		return dt
	}
	dt := st.register(obj.Name)
	st.queue = append(st.queue, pendingType{dt: dt, obj: id})
	return dt
}

func (st *walkState) register(name string) *DataType {
	dt := &DataType{Name: name}
	st.visited[name] = dt
	st.out.DataTypes = append(st.out.DataTypes, dt)
	return dt
}

func (st *walkState) drain() {
	for len(st.queue) > 0 {
		next := st.queue[0]
		st.queue = st.queue[1:]
		st.populate(next.dt, next.obj)
	}
}

func (st *walkState) populate(dt *DataType, id cml.ObjectID) {
	obj := st.model.Object(id)
	dt.Comments = obj.Comment

	switch obj.Kind {
	case cml.KindEnum:
		dt.IsEnum = true
		for _, v := range obj.Values {
			dt.Attributes = append(dt.Attributes, DataTypeAttribute{Name: v})
		}
	case cml.KindEntity, cml.KindValueObject, cml.KindDomainEvent, cml.KindCommandEvent, cml.KindBasicType, cml.KindDTO:
		for _, part := range st.supertypeChain(id) {
			st.addFields(dt, st.model.Object(part))
		}
	}

	if len(dt.Attributes) == 0 {
		dt.IsAbstract = true
		if dt.Comments == "" {
			dt.Comments = abstractComment(dt.Name)
		}
	}
}

// supertypeChain returns id and its supertypes, most general first.
func (st *walkState) supertypeChain(id cml.ObjectID) []cml.ObjectID {
	seen := make(map[cml.ObjectID]bool)
	var chain []cml.ObjectID
	for cur := id; cur != cml.NoObject && !seen[cur]; cur = st.model.Object(cur).Extends {
		seen[cur] = true
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (st *walkState) addFields(dt *DataType, obj cml.DomainObject) {
	for _, attr := range obj.Attributes {
		field := DataTypeAttribute{
			Name:         attr.Name,
			TypeName:     attr.Type,
			IsCollection: attr.Collection.IsCollection(),
			IsNullable:   attr.Nullable,
		}
		if attr.Type != "" && !IsPrimitiveTypeName(attr.Type) {
			ref := st.namedType(attr.Type)
			field.TypeName = ref.Name
			field.IsReference = true
		}
		dt.Attributes = append(dt.Attributes, field)
	}
	for _, ref := range obj.References {
		target := st.objectType(ref.Target)
		dt.Attributes = append(dt.Attributes, DataTypeAttribute{
			Name:         ref.Name,
			TypeName:     target.Name,
			IsCollection: ref.Collection.IsCollection(),
			IsNullable:   ref.Nullable,
			IsReference:  true,
		})
	}
}

func abstractComment(name string) string {
	return fmt.Sprintf("the type %s has not been specified or does not contain any attributes", name)
}
