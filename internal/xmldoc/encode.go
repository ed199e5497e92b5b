// Package xmldoc is a small XML document library used by the escl package
// to encode and decode eSCL wire messages.
//
// Encode is trimmed from the teacher toolkit's generic encoder down to the
// one wire shape escl actually needs: a compact XML document posted as an
// HTTP request body (escl/client.go's Start call is the only caller, via
// EncodeString). The teacher's indented-output variants (EncodeIndent,
// EncodeIndentString) served its own CLI pretty-printing commands, which
// this module has no equivalent of, and were dropped rather than kept
// unused.
//
// XML encoder

package xmldoc

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// Encode writes root's XML document into w.
func (root Element) Encode(w io.Writer, ns Namespace) error {
	encoder := xml.NewEncoder(w)

	// Extract the subset of ns actually referenced by root's tree and
	// declare it on the root element.
	nsused := root.namespaceUsed(ns)
	nsattrs := make([]Attr, len(nsused))
	for i := range nsused {
		nsattrs[i].Name = "xmlns:" + nsused[i].Prefix
		nsattrs[i].Value = nsused[i].URL
	}
	root.Attrs = append(nsattrs, root.Attrs...)

	if err := encoder.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0"`)}); err != nil {
		return err
	}

	if err := root.encodeRecursive(encoder); err != nil {
		return err
	}

	return encoder.Flush()
}

// EncodeString writes root's XML document and returns it as a string.
func (root Element) EncodeString(ns Namespace) string {
	buf := &bytes.Buffer{}
	root.Encode(buf, ns)
	return buf.String()
}

// encodeRecursive recursively encodes the element and its children.
func (root *Element) encodeRecursive(encoder *xml.Encoder) error {
	name := xml.Name{Local: root.Name}

	attrs := make([]xml.Attr, 0, len(root.Attrs))
	for _, attr := range root.Attrs {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: attr.Name}, Value: attr.Value})
	}

	if err := encoder.EncodeToken(xml.StartElement{Name: name, Attr: attrs}); err != nil {
		return err
	}

	if text := strings.TrimSpace(root.Text); text != "" {
		if err := encoder.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}

	for _, child := range root.Children {
		if err := child.encodeRecursive(encoder); err != nil {
			return err
		}
	}

	return encoder.EncodeToken(xml.EndElement{Name: name})
}

// namespaceUsed returns the subset of ns actually referenced by a prefix
// somewhere in root's tree, in first-use order.
func (root *Element) namespaceUsed(ns Namespace) Namespace {
	out := make(Namespace, 0, len(ns))
	inuse := make(map[string]struct{})

	record := func(name string) {
		prefix, ok := nsPrefix(name)
		if !ok {
			return
		}
		if _, seen := inuse[prefix]; seen {
			return
		}
		inuse[prefix] = struct{}{}
		if url, ok := ns.ByPrefix(prefix); ok {
			out.Append(url, prefix)
		}
	}

	iter := root.Iterate()
	for iter.Next() {
		elem := iter.Elem()
		record(elem.Name)
		for _, attr := range elem.Attrs {
			record(attr.Name)
		}
	}

	return out
}
