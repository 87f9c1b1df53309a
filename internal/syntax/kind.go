// Package syntax holds the lossless concrete syntax tree produced by the
// parser. Nodes own their children in source order; tokens carry their exact
// text, trivia included.
package syntax

// Kind identifies the shape of a CST node.
type Kind string

const (
	Root            Kind = "Root"
	Error           Kind = "Error"
	Resource        Kind = "Resource"
	Component       Kind = "Component"
	System          Kind = "System"
	Import          Kind = "Import"
	FieldType       Kind = "FieldType"
	StructType      Kind = "StructType"
	Paren           Kind = "Paren"
	Query           Kind = "Query"
	Block           Kind = "Block"
	Prefix          Kind = "Prefix"
	Infix           Kind = "Infix"
	Literal         Kind = "Literal"
	ComponentAccess Kind = "ComponentAccess"
	ResourceAccess  Kind = "ResourceAccess"
	Call            Kind = "Call"
	Let             Kind = "Let"
	Del             Kind = "Del"
	While           Kind = "While"
	If              Kind = "If"
	Struct          Kind = "Struct"
)
