package contract

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/contractgen/cml"
	"github.com/teranos/contractgen/errors"
)

// exposedAggregate creates context "Upstream" with aggregate "Things" exposed
// to "Downstream" and returns the aggregate builder.
func exposedAggregate(b *cml.Builder) *cml.AggregateBuilder {
	agg := b.Context("Upstream").Aggregate("Things")
	b.Context("Downstream")
	b.Relationship("Upstream", "Downstream").Exposes("Things")
	return agg
}

func walk(t *testing.T, b *cml.Builder, opts Options) *ContractModel {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	cm, err := NewWalker(m, opts).WalkContext("Upstream")
	require.NoError(t, err)
	return cm
}

func walkErr(t *testing.T, b *cml.Builder) error {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	_, err = NewWalker(m, Options{}).WalkContext("Upstream")
	require.Error(t, err)
	return err
}

func dataTypeNames(cm *ContractModel) []string {
	names := make([]string, 0, len(cm.DataTypes))
	for _, dt := range cm.DataTypes {
		names = append(names, dt.Name)
	}
	return names
}

func TestWalk_SingleOperationWithUnresolvedReturnType(t *testing.T) {
	b := cml.NewBuilder("InsuranceContextMap")
	agg := exposedAggregate(b)
	agg.Entity("Customer").Root().Op("updateAddress").Param("address", "Address").Returns("ReturnType")
	agg.ValueObject("Address").Attr("street", "String")

	cm := walk(t, b, Options{})

	require.Len(t, cm.Endpoints, 1)
	ep := cm.Endpoints[0]
	assert.Equal(t, "Things", ep.Name)
	require.Len(t, ep.Operations, 1)
	op := ep.Operations[0]
	assert.Equal(t, "updateAddress", op.Name)

	assert.Equal(t, []string{"Address", "ReturnType"}, dataTypeNames(cm))
	require.NotNil(t, op.Expecting)
	assert.Equal(t, "Address", op.Expecting.Name)
	require.NotNil(t, op.Delivering)
	assert.Equal(t, "ReturnType", op.Delivering.Name)

	address := cm.DataTypes[0]
	assert.False(t, address.IsAbstract)
	assert.Equal(t, []DataTypeAttribute{{Name: "street", TypeName: "String"}}, address.Attributes)

	ret := cm.DataTypes[1]
	assert.True(t, ret.IsAbstract)
	assert.Empty(t, ret.Attributes)
	assert.Contains(t, ret.Comments, "ReturnType")

	assert.Equal(t, "Upstream", cm.Name)
	assert.Equal(t, "InsuranceContextMap", cm.ContextMapName)
}

func TestWalk_NoPublicOperations(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Customer").Root().Op("hidden").Private()

	err := walkErr(t, b)
	assert.True(t, IsInputError(err, NoOperationsFound))
	assert.True(t, errors.Is(err, ErrGeneratorInput))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestWalk_SelfReference(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Node").Root().
		Attr("label", "String").
		Ref("parent", "Node", cml.Nullable()).
		Op("getNode").Returns("Node")

	cm := walk(t, b, Options{})

	require.Equal(t, []string{"Node"}, dataTypeNames(cm))
	node := cm.DataTypes[0]
	require.Len(t, node.Attributes, 2)
	assert.Equal(t, DataTypeAttribute{Name: "parent", TypeName: "Node", IsNullable: true, IsReference: true}, node.Attributes[1])
}

func TestWalk_MutualReferences(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Root").Root().Op("get").Returns("A")
	agg.ValueObject("A").Ref("b", "B")
	agg.ValueObject("B").Ref("a", "A").Ref("as", "A", cml.List())

	cm := walk(t, b, Options{})

	assert.Equal(t, []string{"A", "B"}, dataTypeNames(cm))
	a, _ := cm.DataType("A")
	bt, _ := cm.DataType("B")
	assert.Equal(t, "B", a.Attributes[0].TypeName)
	assert.Equal(t, "A", bt.Attributes[0].TypeName)
	assert.True(t, bt.Attributes[1].IsCollection)
}

func TestWalk_LongCycleTerminates(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Root").Root().Op("get").Returns("T0")
	const n = 500
	for i := 0; i < n; i++ {
		agg.ValueObject(typeName(i)).Ref("next", typeName((i+1)%n))
	}

	cm := walk(t, b, Options{})
	assert.Len(t, cm.DataTypes, n)
}

func typeName(i int) string {
	return "T" + strconv.Itoa(i)
}

func TestWalk_OnlyOneDataTypeIfSameNameAppearsMultipleTimes(t *testing.T) {
	b := cml.NewBuilder("Map")
	ctx := b.Context("Upstream")
	first := ctx.Aggregate("First")
	first.Entity("FirstRoot").Root().Op("createFirst").Param("address", "Address")
	first.ValueObject("Address").Attr("street", "String")
	second := ctx.Aggregate("Second")
	second.Entity("SecondRoot").Root().Op("createSecond").Param("address", "Address")
	second.ValueObject("Address").Attr("city", "String").Attr("country", "String")
	b.Context("Downstream")
	b.Relationship("Upstream", "Downstream").Exposes("First", "Second")

	cm := walk(t, b, Options{})

	assert.Equal(t, []string{"Address"}, dataTypeNames(cm))
	require.Len(t, cm.Endpoints, 2)
	assert.Same(t, cm.Endpoints[0].Operations[0].Expecting, cm.Endpoints[1].Operations[0].Expecting)
	assert.Equal(t, "street", cm.DataTypes[0].Attributes[0].Name)
}

func TestWalk_Payloads(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	root := agg.Entity("Customer").Root().Attr("name", "String")
	root.Op("ping")
	root.Op("rename").Param("name", "String").Returns("boolean")
	root.Op("move").Param("street", "String").Param("addresses", "Address", cml.List()).Returns("Customer", cml.List())
	root.Op("finish").Returns("void")
	agg.ValueObject("Address").Attr("street", "String")

	cm := walk(t, b, Options{})
	ops := cm.Endpoints[0].Operations
	require.Len(t, ops, 4)

	assert.Nil(t, ops[0].Expecting)
	assert.Nil(t, ops[0].Delivering)

	require.NotNil(t, ops[1].Expecting)
	assert.True(t, ops[1].Expecting.IsPrimitive)
	assert.Equal(t, "String", ops[1].Expecting.Name)
	assert.True(t, ops[1].Delivering.IsPrimitive)

	param := ops[2].Expecting
	require.NotNil(t, param)
	assert.Equal(t, "moveParameter", param.Name)
	assert.Equal(t, []DataTypeAttribute{
		{Name: "street", TypeName: "String"},
		{Name: "addresses", TypeName: "Address", IsCollection: true, IsReference: true},
	}, param.Attributes)
	assert.True(t, ops[2].DeliveringCollection)
	assert.Equal(t, "Customer", ops[2].Delivering.Name)

	assert.Nil(t, ops[3].Delivering)

	assert.Equal(t, []string{"moveParameter", "Address", "Customer"}, dataTypeNames(cm))
	for _, dt := range cm.DataTypes {
		assert.False(t, dt.IsPrimitive, dt.Name)
	}
}

func TestWalk_EnumsAndSupertypes(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Base").Attr("id", "long")
	agg.Entity("Customer").Root().Extends("Base").
		Attr("status", "Status").
		Attr("tags", "String", cml.Set()).
		Op("get").Returns("Customer")
	agg.Enum("Status", "ACTIVE", "INACTIVE")

	cm := walk(t, b, Options{})

	customer, ok := cm.DataType("Customer")
	require.True(t, ok)
	assert.Equal(t, []DataTypeAttribute{
		{Name: "id", TypeName: "long"},
		{Name: "status", TypeName: "Status", IsReference: true},
		{Name: "tags", TypeName: "String", IsCollection: true},
	}, customer.Attributes)

	status, ok := cm.DataType("Status")
	require.True(t, ok)
	assert.True(t, status.IsEnum)
	assert.Equal(t, []DataTypeAttribute{{Name: "ACTIVE"}, {Name: "INACTIVE"}}, status.Attributes)

	_, ok = cm.DataType("Base")
	assert.False(t, ok)
}

func TestWalk_EmptyObjectIsAbstract(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Root").Root().Op("get").Returns("Marker")
	agg.ValueObject("Marker")

	cm := walk(t, b, Options{})
	marker, ok := cm.DataType("Marker")
	require.True(t, ok)
	assert.True(t, marker.IsAbstract)
	assert.NotEmpty(t, marker.Comments)
}

func TestWalk_ServicesAndApplication(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Customer").Root().Op("get").Returns("String")
	agg.Service("CustomerDomainService").Op("verify").Param("id", "long")
	app := b.Context("Upstream").Application("UpstreamApp")
	app.Service("CustomerAppService").Op("register").Param("name", "String").Responsibility("registers customers")
	app.Service("Empty").Op("internal").Private()

	cm := walk(t, b, Options{})

	require.Len(t, cm.Endpoints, 2)
	assert.Equal(t, "Things", cm.Endpoints[0].Name)
	assert.Equal(t, []string{"get", "verify"}, []string{cm.Endpoints[0].Operations[0].Name, cm.Endpoints[0].Operations[1].Name})
	assert.Equal(t, "CustomerAppService", cm.Endpoints[1].Name)
	assert.Equal(t, "registers customers", cm.Endpoints[1].Operations[0].Responsibility)
}

func TestWalk_ApplicationOnlyContext(t *testing.T) {
	b := cml.NewBuilder("Map")
	b.Context("Upstream").Application("App").Service("Svc").Op("run")

	cm := walk(t, b, Options{})
	require.Len(t, cm.Endpoints, 1)
	assert.Empty(t, cm.Clients)
	require.Len(t, cm.Providers, 1)
	assert.Equal(t, DefaultProtocol, cm.Providers[0].Offers[0].Protocol)
}

func TestWalk_ProvidersAndClients(t *testing.T) {
	b := cml.NewBuilder("Map")
	up := b.Context("Upstream")
	up.Aggregate("Customers").Entity("Customer").Root().Op("get")
	up.Aggregate("Policies").Entity("Policy").Root().Op("get")
	b.Context("Billing")
	b.Context("Claims")
	b.Relationship("Upstream", "Billing").Exposes("Customers").Technology("RESTfulHTTP")
	b.Relationship("Upstream", "Claims").Exposes("Customers", "Policies")

	cm := walk(t, b, Options{EndpointLocation: "http://api.example.com", APIVersion: "1.2.0"})

	require.Len(t, cm.Providers, 1)
	provider := cm.Providers[0]
	assert.Equal(t, "UpstreamProvider", provider.Name)
	require.Len(t, provider.Offers, 2)
	assert.Equal(t, "Customers", provider.Offers[0].Endpoint.Name)
	assert.Equal(t, "RESTfulHTTP", provider.Offers[0].Protocol)
	assert.Empty(t, provider.Offers[0].ProtocolComment)
	assert.Equal(t, "http://api.example.com", provider.Offers[0].Location)
	assert.Equal(t, DefaultProtocol, provider.Offers[1].Protocol)
	assert.NotEmpty(t, provider.Offers[1].ProtocolComment)

	require.Len(t, cm.Clients, 2)
	assert.Equal(t, &EndpointClient{Name: "BillingClient", Consumes: []string{"Customers"}}, cm.Clients[0])
	assert.Equal(t, &EndpointClient{Name: "ClaimsClient", Consumes: []string{"Customers", "Policies"}}, cm.Clients[1])
	assert.Equal(t, "1.2.0", cm.APIVersion)
}

func TestWalk_Flows(t *testing.T) {
	b := cml.NewBuilder("Map")
	agg := exposedAggregate(b)
	agg.Entity("Claim").Root().Op("submit")
	b.Context("Upstream").Application("ClaimsApp").Flow("ClaimsFlow",
		cml.CommandInvocation{Events: []string{"ClaimSubmitted"}, Commands: []string{"checkClaim", "notify"}},
		cml.EventProduction{Command: "checkClaim", Events: []string{"ClaimAccepted", "ClaimAudited"}},
		cml.CommandInvocation{Events: []string{"ClaimAccepted", "ClaimAudited"}, Commands: []string{"payClaim"}},
		cml.EventProduction{Command: "payClaim", Events: []string{"ClaimPaid"}, Gate: cml.GateXor},
	)

	cm := walk(t, b, Options{})

	require.Len(t, cm.Flows, 1)
	assert.Equal(t, "ClaimsFlow", cm.Flows[0].Name)
	assert.Equal(t, []FlowStep{
		{Command: "checkClaim", Event: "ClaimSubmitted"},
		{Command: "notify", Event: "ClaimSubmitted"},
		{Command: "checkClaim", Event: "ClaimAccepted", IsDependentStep: true},
		{Command: "checkClaim", Event: "ClaimAudited", IsDependentStep: true},
		{Command: "payClaim", Event: "ClaimAccepted"},
		{Command: "payClaim", Event: "ClaimAudited"},
		{Command: "payClaim", Event: "ClaimPaid", IsDependentStep: true},
	}, cm.Flows[0].Steps)
}

func TestWalk_UnsupportedFlowShapes(t *testing.T) {
	tests := []struct {
		name string
		step cml.FlowStep
	}{
		{"many events trigger many commands", cml.CommandInvocation{Events: []string{"A", "B"}, Commands: []string{"c", "d"}}},
		{"xor over commands", cml.CommandInvocation{Events: []string{"A"}, Commands: []string{"c", "d"}, Gate: cml.GateXor}},
		{"or over emitted events", cml.EventProduction{Command: "c", Events: []string{"A", "B"}, Gate: cml.GateOr}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := cml.NewBuilder("Map")
			agg := exposedAggregate(b)
			agg.Entity("Claim").Root().Op("submit")
			b.Context("Upstream").Application("App").Flow("F", tt.step)

			err := walkErr(t, b)
			assert.True(t, IsInputError(err, UnsupportedFlowShape), "got %v", err)
			assert.Contains(t, err.Error(), "flow F step 1")
		})
	}
}

func TestWalk_InputErrorOrder(t *testing.T) {
	t.Run("no exposed aggregates", func(t *testing.T) {
		b := cml.NewBuilder("Map")
		b.Context("Upstream").Aggregate("Things").Entity("Thing").Root().Op("get")
		err := walkErr(t, b)
		assert.True(t, IsInputError(err, NoExposedAggregates), "got %v", err)
	})
	t.Run("no aggregate roots", func(t *testing.T) {
		b := cml.NewBuilder("Map")
		exposedAggregate(b).Entity("Thing").Op("get")
		err := walkErr(t, b)
		assert.True(t, IsInputError(err, NoAggregateRoots), "got %v", err)
	})
	t.Run("application without services or flows", func(t *testing.T) {
		b := cml.NewBuilder("Map")
		b.Context("Upstream").Application("App")
		err := walkErr(t, b)
		assert.True(t, IsInputError(err, NoOperationsFound), "got %v", err)
	})
	t.Run("only private application operations", func(t *testing.T) {
		b := cml.NewBuilder("Map")
		exposedAggregate(b).Entity("Thing").Root()
		b.Context("Upstream").Application("App").Service("Svc").Op("hidden").Private()
		err := walkErr(t, b)
		assert.True(t, IsInputError(err, NoOperationsFound), "got %v", err)
	})
	t.Run("unsupported flow in a flows-only context", func(t *testing.T) {
		b := cml.NewBuilder("Map")
		b.Context("Upstream").Application("App").
			Flow("F", cml.CommandInvocation{Events: []string{"A", "B"}, Commands: []string{"c", "d"}})
		err := walkErr(t, b)
		assert.True(t, IsInputError(err, UnsupportedFlowShape), "got %v", err)
	})
}

func TestWalk_FlowsOnlyContext(t *testing.T) {
	b := cml.NewBuilder("Map")
	b.Context("Upstream").Application("ClaimsApp").Flow("ClaimsFlow",
		cml.CommandInvocation{Events: []string{"ClaimSubmitted"}, Commands: []string{"checkClaim"}},
		cml.EventProduction{Command: "checkClaim", Events: []string{"ClaimAccepted"}},
	)

	cm := walk(t, b, Options{})

	assert.Empty(t, cm.Endpoints)
	assert.Empty(t, cm.Providers)
	assert.Empty(t, cm.Clients)
	assert.Empty(t, cm.DataTypes)
	require.Len(t, cm.Flows, 1)
	assert.Equal(t, []FlowStep{
		{Command: "checkClaim", Event: "ClaimSubmitted"},
		{Command: "checkClaim", Event: "ClaimAccepted", IsDependentStep: true},
	}, cm.Flows[0].Steps)
}

func TestWalkContext_Errors(t *testing.T) {
	b := cml.NewBuilder("Map")
	exposedAggregate(b).Entity("Thing").Root().Op("get")
	m, err := b.Build()
	require.NoError(t, err)
	w := NewWalker(m, Options{})

	_, err = w.WalkContext("")
	assert.True(t, IsInputError(err, MissingParameter))

	_, err = w.WalkContext("Nowhere")
	assert.True(t, IsInputError(err, UnknownContext))
	var gie *GeneratorInputError
	require.True(t, errors.As(err, &gie))
	assert.Equal(t, "Nowhere", gie.Context)
}

func TestCheckUniqueDataTypes(t *testing.T) {
	cm := &ContractModel{Name: "X", DataTypes: []*DataType{{Name: "A"}, {Name: "B"}, {Name: "A"}}}
	err := checkUniqueDataTypes(cm)
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))

	cm.DataTypes = cm.DataTypes[:2]
	assert.NoError(t, checkUniqueDataTypes(cm))
}
