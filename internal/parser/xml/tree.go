package xml

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"

	"github.com/rezonia/fattura-processor/internal/model"
)

// Known document roots, plain and namespace-prefixed
var knownRoots = []string{
	"FatturaElettronica",
	"p:FatturaElettronica",
	"ns2:FatturaElettronica",
	"ns3:FatturaElettronica",
	"a:FatturaElettronica",
	"b:FatturaElettronica",
	"FatturaElettronicaSemplificata",
	"p:FatturaElettronicaSemplificata",
	"ns2:FatturaElettronicaSemplificata",
}

// Node is a schema-agnostic view of an XML element. Children are grouped
// by local name and always held as lists, so an element that occurs once
// and one that repeats are read the same way.
type Node struct {
	Name     string
	Prefix   string
	Attrs    map[string]string
	text     string
	children map[string][]*Node
}

// Tree is a decoded document
type Tree struct {
	Root   *Node
	Signed bool
}

// Decode parses raw markup and resolves the document root.
// It returns INVALID_XML for unreadable markup and MISSING_ROOT when no
// root element can be chosen.
func Decode(raw []byte) (*Tree, error) {
	content := bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))
	if len(content) == 0 || content[0] != '<' {
		return nil, model.NewParseError(model.CodeInvalidXML, "", "content is not XML markup", nil)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, model.NewParseError(model.CodeInvalidXML, "", "failed to parse XML", err)
	}

	root := resolveRoot(doc.ChildElements())
	if root == nil {
		return nil, model.NewParseError(model.CodeMissingRoot, "", "no invoice root element found", nil)
	}

	return &Tree{
		Root:   newNode(root),
		Signed: findElementRecursive(root, "Signature") != nil,
	}, nil
}

func resolveRoot(top []*etree.Element) *etree.Element {
	for _, name := range knownRoots {
		for _, el := range top {
			if el.FullTag() == name {
				return el
			}
		}
	}
	// Unknown prefix on a known local name
	for _, el := range top {
		if el.Tag == "FatturaElettronica" || el.Tag == "FatturaElettronicaSemplificata" {
			return el
		}
	}
	if len(top) == 1 {
		return top[0]
	}
	return nil
}

// findElementRecursive searches for an element by local name recursively
func findElementRecursive(elem *etree.Element, localName string) *etree.Element {
	if elem.Tag == localName {
		return elem
	}
	for _, child := range elem.ChildElements() {
		if found := findElementRecursive(child, localName); found != nil {
			return found
		}
	}
	return nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset: %s", label)
}

func newNode(el *etree.Element) *Node {
	n := &Node{
		Name:     el.Tag,
		Prefix:   el.Space,
		children: make(map[string][]*Node),
	}

	if len(el.Attr) > 0 {
		n.Attrs = make(map[string]string, len(el.Attr))
		for _, a := range el.Attr {
			n.Attrs[a.Key] = a.Value
		}
	}

	var text strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			text.WriteString(t.Data)
		case *etree.Element:
			child := newNode(t)
			n.children[child.Name] = append(n.children[child.Name], child)
		}
	}
	n.text = text.String()

	return n
}

// Child returns the first element at the slash-separated path, or nil
func (n *Node) Child(path string) *Node {
	all := n.All(path)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// All returns every element at the slash-separated path, in document order
func (n *Node) All(path string) []*Node {
	if n == nil {
		return nil
	}
	current := []*Node{n}
	for _, step := range strings.Split(path, "/") {
		var next []*Node
		for _, c := range current {
			next = append(next, c.children[step]...)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// Text returns the trimmed character data of the element. Elements that
// only carry attributes fall back to a "value" attribute when present.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if t := strings.TrimSpace(n.text); t != "" {
		return t
	}
	return strings.TrimSpace(n.Attrs["value"])
}

// Value returns the text at the path, or "" when the path is absent
func (n *Node) Value(path string) string {
	return n.Child(path).Text()
}

// Values returns the non-empty texts of every element at the path
func (n *Node) Values(path string) []string {
	var out []string
	for _, c := range n.All(path) {
		if t := c.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}
