package ir

type Block struct {
	Exprs []Idx
}

type IdentExpr struct {
	Ident Identifier
}

type Number struct {
	Value float64
}

type ComponentAccess struct {
	Entity    Idx
	Component Idx
}

type ResourceAccess struct {
	Resource Idx
}

// MemberAccess reads field Member (an IdentExpr) of Base.
type MemberAccess struct {
	Base   Idx
	Member Idx
}

type Assign struct {
	LValue Idx
	Expr   Idx
}

type Call struct {
	Function Idx
	Args     []Idx
}

// Query binds Entity to each matching entity while running Body.
type Query struct {
	Entity string
	Body   Idx
}

type Let struct {
	LValue Idx
	Expr   Idx
}

type Del struct {
	Expr Idx
}

type If struct {
	Cond    Idx
	Then    Idx
	Else    Idx
	HasElse bool
}

type While struct {
	Cond Idx
	Body Idx
}

type FieldInit struct {
	Name  string
	Value Idx
}

type StructLit struct {
	Ident  Identifier
	Fields []FieldInit
}

// Poison stands in for anything that failed to lower.
type Poison struct{}

func (*Block) irNode()           {}
func (*IdentExpr) irNode()       {}
func (*Number) irNode()          {}
func (*ComponentAccess) irNode() {}
func (*ResourceAccess) irNode()  {}
func (*MemberAccess) irNode()    {}
func (*Assign) irNode()          {}
func (*Call) irNode()            {}
func (*Query) irNode()           {}
func (*Let) irNode()             {}
func (*Del) irNode()             {}
func (*If) irNode()              {}
func (*While) irNode()           {}
func (*StructLit) irNode()       {}
func (*Poison) irNode()          {}

func (*Block) exprNode()           {}
func (*IdentExpr) exprNode()       {}
func (*Number) exprNode()          {}
func (*ComponentAccess) exprNode() {}
func (*ResourceAccess) exprNode()  {}
func (*MemberAccess) exprNode()    {}
func (*Assign) exprNode()          {}
func (*Call) exprNode()            {}
func (*Query) exprNode()           {}
func (*Let) exprNode()             {}
func (*Del) exprNode()             {}
func (*If) exprNode()              {}
func (*While) exprNode()           {}
func (*StructLit) exprNode()       {}
func (*Poison) exprNode()          {}
