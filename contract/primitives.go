package contract

// primitiveTypeNames are the domain-model type names rendered inline rather
// than as registered data types.
var primitiveTypeNames = map[string]bool{
	"String":    true,
	"string":    true,
	"int":       true,
	"Integer":   true,
	"long":      true,
	"Long":      true,
	"boolean":   true,
	"Boolean":   true,
	"bool":      true,
	"double":    true,
	"Double":    true,
	"float":     true,
	"Float":     true,
	"Date":      true,
	"DateTime":  true,
	"Timestamp": true,
	"Blob":      true,
	"Object":    true,
	"raw":       true,
}

// IsPrimitiveTypeName reports whether name is a primitive type of the domain model.
func IsPrimitiveTypeName(name string) bool {
	return primitiveTypeNames[name]
}
