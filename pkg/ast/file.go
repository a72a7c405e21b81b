package ast

// Comment is a source comment with its text including the leading "#".
type Comment struct {
	Text string
	Loc  Location
}

// File is a parsed source file.
type File struct {
	Path     string
	Root     *Node
	Comments []Comment
}

// Walk visits n and its descendants depth-first, stopping descent into a
// subtree when fn returns false.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
