package cml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/contractgen/errors"
)

const yamlModel = `
context_map: InsuranceContextMap
contexts:
  - name: CustomerManagement
    aggregates:
      - name: Customers
        objects:
          - name: Customer
            kind: entity
            root: true
            attributes:
              - {name: firstname, type: String}
            references:
              - {name: addresses, target: Address, collection: list}
            operations:
              - name: createAddress
                parameters:
                  - {name: address, type: Address}
                returns: {type: Address}
          - name: Address
            kind: value_object
            attributes:
              - {name: street, type: String}
              - {name: zip, type: int, nullable: true}
    application:
      name: CustomerApp
      services:
        - name: CustomerService
          operations:
            - name: findCustomers
              visibility: public
              returns: {type: Customer, collection: list}
      flows:
        - name: OnboardingFlow
          steps:
            - events: [CustomerRegistered]
              commands: [verifyCustomer]
            - command: verifyCustomer
              emits: [CustomerVerified, CustomerRejected]
              gate: xor
  - name: PolicyManagement
relationships:
  - upstream: CustomerManagement
    downstream: PolicyManagement
    exposes: [Customers]
    implementation_technology: RESTfulHTTP
`

const tomlModel = `
context_map = "InsuranceContextMap"

[[contexts]]
name = "CustomerManagement"

[[contexts.aggregates]]
name = "Customers"

[[contexts.aggregates.objects]]
name = "Customer"
kind = "entity"
root = true
attributes = [{ name = "firstname", type = "String" }]
references = [{ name = "addresses", target = "Address", collection = "list" }]

[[contexts.aggregates.objects.operations]]
name = "createAddress"
parameters = [{ name = "address", type = "Address" }]
returns = { type = "Address" }

[[contexts.aggregates.objects]]
name = "Address"
kind = "value_object"
attributes = [
  { name = "street", type = "String" },
  { name = "zip", type = "int", nullable = true },
]

[[contexts]]
name = "PolicyManagement"

[[relationships]]
upstream = "CustomerManagement"
downstream = "PolicyManagement"
exposes = ["Customers"]
implementation_technology = "RESTfulHTTP"
`

func assertInsuranceModel(t *testing.T, m *Model) {
	t.Helper()
	assert.Equal(t, "InsuranceContextMap", m.Name)
	require.Len(t, m.Contexts(), 2)

	customerID, ok := m.ObjectByName("Customer")
	require.True(t, ok)
	customer := m.Object(customerID)
	assert.True(t, customer.AggregateRoot)
	require.Len(t, customer.References, 1)
	assert.Equal(t, CollectionList, customer.References[0].Collection)
	require.Len(t, customer.Operations, 1)
	assert.Equal(t, "createAddress", customer.Operations[0].Name)

	addressID, ok := m.ObjectByName("Address")
	require.True(t, ok)
	assert.Equal(t, KindValueObject, m.Object(addressID).Kind)
	assert.True(t, m.Object(addressID).Attributes[1].Nullable)

	cm, _ := m.ContextByName("CustomerManagement")
	assert.Len(t, m.ExposedAggregates(cm), 1)
	assert.Equal(t, "RESTfulHTTP", m.Relationships()[0].ImplementationTechnology)
}

func TestLoad_YAML(t *testing.T) {
	m, err := Load([]byte(yamlModel), FormatYAML)
	require.NoError(t, err)
	assertInsuranceModel(t, m)

	cm, _ := m.ContextByName("CustomerManagement")
	app := m.Context(cm).Application
	require.NotNil(t, app)
	require.Len(t, app.Services, 1)
	svc := m.Service(app.Services[0])
	assert.Equal(t, "CustomerService", svc.Name)
	assert.Equal(t, CollectionList, svc.Operations[0].Returns.Collection)

	require.Len(t, app.Flows, 1)
	steps := app.Flows[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, CommandInvocation{Events: []string{"CustomerRegistered"}, Commands: []string{"verifyCustomer"}, Gate: GateAnd}, steps[0])
	assert.Equal(t, EventProduction{Command: "verifyCustomer", Events: []string{"CustomerVerified", "CustomerRejected"}, Gate: GateXor}, steps[1])
}

func TestLoad_TOML(t *testing.T) {
	m, err := Load([]byte(tomlModel), FormatTOML)
	require.NoError(t, err)
	assertInsuranceModel(t, m)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad yaml", "contexts: [", "failed to parse YAML"},
		{"unknown kind", "contexts:\n  - name: A\n    aggregates:\n      - name: X\n        objects:\n          - {name: E, kind: aggregate}\n", `unknown kind "aggregate"`},
		{"unknown collection", "contexts:\n  - name: A\n    aggregates:\n      - name: X\n        objects:\n          - name: E\n            attributes: [{name: a, type: String, collection: bag}]\n", `unknown collection "bag"`},
		{"bad step", "contexts:\n  - name: A\n    application:\n      name: App\n      flows:\n        - name: F\n          steps: [{events: [E]}]\n", "neither an event trigger"},
		{"unknown gate", "contexts:\n  - name: A\n    application:\n      name: App\n      flows:\n        - name: F\n          steps: [{command: c, emits: [E], gate: nand}]\n", `unknown gate "nand"`},
		{"unknown visibility", "contexts:\n  - name: A\n    aggregates:\n      - name: X\n        objects:\n          - name: E\n            operations: [{name: op, visibility: secret}]\n", `unknown visibility "secret"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc), FormatYAML)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidModelError(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "model.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlModel), 0o644))
	m, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assertInsuranceModel(t, m)

	tomlPath := filepath.Join(dir, "model.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlModel), 0o644))
	m, err = LoadFile(tomlPath)
	require.NoError(t, err)
	assertInsuranceModel(t, m)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	_, err = LoadFile(filepath.Join(dir, "model.cml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.NotEmpty(t, errors.GetAllHints(err))
}
