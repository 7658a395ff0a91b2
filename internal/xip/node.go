package xip

import (
	"encoding/xml"
	"strings"

	"github.com/preservio/papi/pkg/papi"
)

// Node is a minimal XML tree used for typed navigation by child tag name
// and attribute lookup. Namespace prefixes are ignored; elements are
// matched on their local name, which keeps the decoder independent of the
// prefix choices the server makes.
type Node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []Node     `xml:",any"`
	Text    string     `xml:",chardata"`
}

// Parse decodes an XML document into a Node tree. A document that cannot be
// parsed is a hard decode failure.
func Parse(data []byte) (*Node, error) {
	var root Node

	err := xml.Unmarshal(data, &root)
	if err != nil {
		return nil, papi.NewDecodeError("parsing XML document: %v", err)
	}

	return &root, nil
}

// Name returns the element's local name.
func (n *Node) Name() string {
	return n.XMLName.Local
}

// Child returns the first child element with the given local name, or nil.
func (n *Node) Child(name string) *Node {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}

	return nil
}

// ChildList returns all child elements with the given local name, in
// document order.
func (n *Node) ChildList(name string) []*Node {
	var nodes []*Node

	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			nodes = append(nodes, &n.Nodes[i])
		}
	}

	return nodes
}

// ChildText returns the trimmed text of the first child with the given
// local name, or "" when the child is absent.
func (n *Node) ChildText(name string) string {
	child := n.Child(name)
	if child == nil {
		return ""
	}

	return child.TrimmedText()
}

// TrimmedText returns the element's character data with surrounding
// whitespace removed.
func (n *Node) TrimmedText() string {
	return strings.TrimSpace(n.Text)
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, attr := range n.Attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}

	return "", false
}
