package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/lexer"
)

// Expr is one argument of a call node: a literal *Data or a nested *Node.
type Expr interface {
	Token() lexer.Token
}

// Builtin is the native operation behind a call node. It runs with the node's
// activation frame and publishes its result with Frame.SetReturn.
type Builtin func(f *Frame)

// Node is one call in the parsed program. The argument list is fixed at parse
// time and shared by every activation; per-call state lives in Frame.
type Node struct {
	Name   string
	Op     Builtin
	Tok    lexer.Token
	Args   []Expr
	Parent *Node
}

// NewNode creates a call node for a builtin.
func NewNode(name string, op Builtin, tok lexer.Token) *Node {
	return &Node{Name: name, Op: op, Tok: tok}
}

// Token returns the position of the call's name.
func (n *Node) Token() lexer.Token { return n.Tok }

// AddArgument appends an argument. Nested calls get n as their parent, which
// fixes the static scope chain.
func (n *Node) AddArgument(e Expr) {
	if child, ok := e.(*Node); ok {
		child.Parent = n
	}
	n.Args = append(n.Args, e)
}

// Free releases every literal held by the subtree.
func (n *Node) Free() {
	for _, arg := range n.Args {
		switch a := arg.(type) {
		case *Data:
			a.Free()
		case *Node:
			a.Free()
		}
	}
	n.Args = nil
}
