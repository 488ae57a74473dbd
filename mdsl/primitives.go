package mdsl

// primitiveTypes maps domain-model primitive names to MDSL base types.
var primitiveTypes = map[string]string{
	"String":    "string",
	"string":    "string",
	"int":       "int",
	"Integer":   "int",
	"long":      "long",
	"Long":      "long",
	"boolean":   "bool",
	"Boolean":   "bool",
	"bool":      "bool",
	"double":    "double",
	"Double":    "double",
	"float":     "double",
	"Float":     "double",
	"Date":      "string",
	"DateTime":  "string",
	"Timestamp": "string",
	"Blob":      "raw",
	"Object":    "raw",
	"raw":       "raw",
}

// BaseType returns the MDSL base type for a primitive name; unknown names map to raw.
func BaseType(name string) string {
	if t, ok := primitiveTypes[name]; ok {
		return t
	}
	return "raw"
}
