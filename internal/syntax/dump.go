package syntax

import (
	"fmt"
	"strings"
)

// Dump renders the tree one element per line with byte ranges. Trivia tokens
// are omitted when withTrivia is false.
func Dump(n *Node, withTrivia bool) string {
	var b strings.Builder
	dump(&b, n, 0, withTrivia)
	return b.String()
}

func dump(b *strings.Builder, n *Node, depth int, withTrivia bool) {
	r := n.Range()
	fmt.Fprintf(b, "%s%s@%d..%d\n", strings.Repeat("  ", depth), n.Kind, r.Start, r.End)
	for _, child := range n.children {
		switch c := child.(type) {
		case *Node:
			dump(b, c, depth+1, withTrivia)
		case *Token:
			if !withTrivia && c.Kind.IsTrivia() {
				continue
			}
			r := c.Range()
			fmt.Fprintf(b, "%s%s@%d..%d %q\n", strings.Repeat("  ", depth+1), c.Kind, r.Start, r.End, c.Value)
		}
	}
}
