// Package xmldoc is a small XML document library used by the escl
// package to encode and decode eSCL wire messages.
//
// Element, Namespace and Lookup are this module's own types — the teacher
// toolkit's internal XML mini-library was retrieved without its type
// declarations, only encode.go and decode.go. Encode (see encode.go) is
// the teacher's algorithm, trimmed to the one wire shape escl needs;
// Decode (see decode.go) is rewritten from scratch to build this value
// tree instead of the pointer/parent-linked one the teacher's retrieved
// decode.go assumed.
package xmldoc

import "fmt"

// Attr is a single XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a single XML element, decoded into a tree (or built up to be
// encoded into one). Name carries an "ns:" prefix when the element or
// attribute belongs to a known namespace.
type Element struct {
	Name     string
	Path     string
	Text     string
	Attrs    []Attr
	Children []Element
	Parent   *Element
}

// elementIter walks an Element tree breadth-first: root, then its
// children, then their children, level by level.
type elementIter struct {
	stack []*Element
}

// Iterate returns an iterator over root and all its descendants.
func (root *Element) Iterate() *elementIter {
	return &elementIter{stack: []*Element{root}}
}

func (it *elementIter) Next() bool {
	return len(it.stack) > 0
}

func (it *elementIter) Elem() *Element {
	elem := it.stack[0]
	it.stack = it.stack[1:]
	for i := range elem.Children {
		it.stack = append(it.stack, &elem.Children[i])
	}
	return elem
}

// Namespace is an ordered list of (URL, prefix) pairs used to translate
// namespace URLs into short prefixes on decode, and back on encode.
type Namespace []NamespaceEntry

// NamespaceEntry is a single namespace URL/prefix binding.
type NamespaceEntry struct {
	URL    string
	Prefix string
}

// Append adds a new (url, prefix) binding to the Namespace.
func (ns *Namespace) Append(url, prefix string) {
	*ns = append(*ns, NamespaceEntry{URL: url, Prefix: prefix})
}

// ByURL looks the namespace prefix up by its URL.
func (ns Namespace) ByURL(url string) (prefix string, found bool) {
	for _, e := range ns {
		if e.URL == url {
			return e.Prefix, true
		}
	}
	return "", false
}

// ByPrefix looks the namespace URL up by its prefix.
func (ns Namespace) ByPrefix(prefix string) (url string, found bool) {
	for _, e := range ns {
		if e.Prefix == prefix {
			return e.URL, true
		}
	}
	return "", false
}

// Lookup requests a single child element to be found by Element.Lookup.
type Lookup struct {
	Name     string
	Required bool
	Found    bool
	Elem     Element
}

// Lookup searches root's direct children for each of the given lookups by
// name, filling in Found/Elem. It returns the first required-but-missing
// Lookup, or nil if all required lookups were satisfied.
func (root Element) Lookup(lookups ...*Lookup) *Lookup {
	for _, l := range lookups {
		for _, c := range root.Children {
			if c.Name == l.Name {
				l.Found = true
				l.Elem = c
				break
			}
		}
		if l.Required && !l.Found {
			return l
		}
	}
	return nil
}

// XMLErrWrap wraps err with the context of the element it was found under,
// no-op if err is nil.
func XMLErrWrap(root Element, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", root.Name, err)
}

// XMLErrMissed builds the error for a missing required element.
func XMLErrMissed(name string) error {
	return fmt.Errorf("missed required element: %s", name)
}
