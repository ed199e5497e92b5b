// Package xmldoc is a small XML document library used by the escl package
// to encode and decode eSCL wire messages.
//
// Decode below is this module's own code: the teacher's retrieved
// decode.go built a flat []*Element slice linked by Parent pointers, which
// doesn't fit the value-typed Element this package actually settled on
// (types.go, needed so escl's encoders can build trees as nested struct
// literals — see escl/scansettings.go). This Decode builds that same value
// tree with a stack instead, and is the mirror operation of Element.Encode,
// which escl's Lookup-based decoders (decodeJobState, DecodeScannerStatus)
// walk with Element.Lookup.
//
// XML decoder

package xmldoc

import (
	"encoding/xml"
	"io"
	"strings"
)

// Decode parses an XML document into a single root [Element] tree.
//
// Namespace prefixes are rewritten according to ns: a start element or
// attribute whose namespace URL is found in ns renders as "prefix:local";
// an unrecognized namespace URL renders as "-:local". Element text is
// trimmed of leading/trailing whitespace.
//
// Path is the full slash-separated path from the root to the element,
// e.g. "/scan:ScannerStatus/scan:Jobs/scan:JobInfo".
func Decode(ns Namespace, in io.Reader) (root Element, err error) {
	decoder := xml.NewDecoder(in)

	var stack []*Element
	var text strings.Builder

	flushText := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		top.Text += text.String()
		text.Reset()
	}

	for {
		var tok xml.Token
		tok, err = decoder.Token()
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			flushText()

			name := qualifiedName(ns, t.Name)
			path := "/" + name
			if len(stack) > 0 {
				path = stack[len(stack)-1].Path + "/" + name
			}

			elem := &Element{Name: name, Path: path}
			for _, a := range t.Attr {
				elem.Attrs = append(elem.Attrs, Attr{
					Name:  qualifiedName(ns, a.Name),
					Value: a.Value,
				})
			}
			stack = append(stack, elem)

		case xml.EndElement:
			flushText()

			finished := stack[len(stack)-1]
			finished.Text = strings.TrimSpace(finished.Text)
			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				root = *finished
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, *finished)
			}

		case xml.CharData:
			text.Write(t)
		}
	}

	return root, err
}

// qualifiedName renders name as "prefix:local", looking the prefix up in
// ns by namespace URL; unnamespaced names pass through unchanged.
func qualifiedName(ns Namespace, name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	prefix, ok := ns.ByURL(name.Space)
	if !ok {
		prefix = "-"
	}
	return prefix + ":" + name.Local
}
