// Package region finds protected regions in previously generated files.
//
// A protected region is delimited by marker comment lines:
//
//	// ** BEGIN PROTECTED REGION for data types
//	data type Address { "street":D<string> }
//	// ** END PROTECTED REGION for data types
//
// Content between the markers is preserved verbatim on regeneration, and any
// declaration found inside replaces the generated declaration of the same name.
package region

// Kind identifies one of the four protected regions of a contract file.
type Kind int

const (
	DataTypes Kind = iota
	Endpoints
	Providers
	Clients
)

// Kinds lists all region kinds in file order.
var Kinds = []Kind{DataTypes, Endpoints, Providers, Clients}

const (
	beginPrefix = "// ** BEGIN PROTECTED REGION for "
	endPrefix   = "// ** END PROTECTED REGION for "
)

// Label is the marker suffix naming the region.
func (k Kind) Label() string {
	switch k {
	case DataTypes:
		return "data types"
	case Endpoints:
		return "endpoint types"
	case Providers:
		return "API providers"
	case Clients:
		return "API clients"
	default:
		return "unknown"
	}
}

// Keyword starts a top-level declaration of this kind.
func (k Kind) Keyword() string {
	switch k {
	case DataTypes:
		return "data type"
	case Endpoints:
		return "endpoint type"
	case Providers:
		return "API provider"
	case Clients:
		return "API client"
	default:
		return ""
	}
}

func (k Kind) String() string {
	return k.Label()
}

// BeginMarker is the line opening a region of kind k.
func BeginMarker(k Kind) string {
	return beginPrefix + k.Label()
}

// EndMarker is the line closing a region of kind k.
func EndMarker(k Kind) string {
	return endPrefix + k.Label()
}

// parseMarker classifies a trimmed line as a begin or end marker.
func parseMarker(trimmed string) (kind Kind, begin bool, ok bool) {
	for _, k := range Kinds {
		switch trimmed {
		case BeginMarker(k):
			return k, true, true
		case EndMarker(k):
			return k, false, true
		}
	}
	return 0, false, false
}
