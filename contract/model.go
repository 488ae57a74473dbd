// Package contract holds the normalized service-contract model and the walker
// that derives it from a domain model.
//
// A ContractModel is independent of any target syntax. The mdsl package
// serializes it; other target syntaxes can be added next to it.
package contract

// ContractModel is the contract of one bounded context.
type ContractModel struct {
	Name           string
	ContextMapName string
	APIVersion     string

	DataTypes []*DataType
	Endpoints []*EndpointContract
	Providers []*EndpointProvider
	Clients   []*EndpointClient
	Flows     []*OrchestrationFlow
}

// DataType is a named payload type. Names are unique within a ContractModel.
type DataType struct {
	Name        string
	IsPrimitive bool
	IsEnum      bool
	IsAbstract  bool
	Attributes  []DataTypeAttribute
	Comments    string
}

// DataTypeAttribute is one field of a DataType. For enums every attribute is
// a literal and TypeName is empty.
type DataTypeAttribute struct {
	Name         string
	TypeName     string
	IsCollection bool
	IsNullable   bool
	IsReference  bool
}

// EndpointContract is a named set of operations.
type EndpointContract struct {
	Name       string
	Operations []*EndpointOperation
}

// EndpointOperation is a single exposed operation. Expecting and Delivering
// are nil for parameterless operations and operations without a result.
type EndpointOperation struct {
	Name                 string
	Responsibility       string
	Expecting            *DataType
	ExpectingCollection  bool
	Delivering           *DataType
	DeliveringCollection bool
}

// EndpointProvider offers endpoints at a location over a protocol.
type EndpointProvider struct {
	Name   string
	Offers []EndpointOffer
}

// EndpointOffer binds one endpoint to a location and protocol.
type EndpointOffer struct {
	Endpoint        *EndpointContract
	Location        string
	Protocol        string
	ProtocolComment string
}

// EndpointClient consumes offers by endpoint name.
type EndpointClient struct {
	Name     string
	Consumes []string
}

// OrchestrationFlow is an ordered list of flow steps.
type OrchestrationFlow struct {
	Name  string
	Steps []FlowStep
}

// FlowStep pairs a command and an event. A dependent step reads "command
// emits event", otherwise "event triggers command".
type FlowStep struct {
	Command         string
	Event           string
	IsDependentStep bool
}

// DataType returns the registered data type with the given name.
func (m *ContractModel) DataType(name string) (*DataType, bool) {
	for _, dt := range m.DataTypes {
		if dt.Name == name {
			return dt, true
		}
	}
	return nil, false
}

// Endpoint returns the endpoint with the given name.
func (m *ContractModel) Endpoint(name string) (*EndpointContract, bool) {
	for _, ep := range m.Endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return nil, false
}
