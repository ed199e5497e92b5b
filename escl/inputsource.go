package escl

import "github.com/innohassle/printhub/internal/xmldoc"

// InputSource selects where the scanner reads paper from.
type InputSource int

// Known input sources.
const (
	UnknownInputSource InputSource = iota
	Platen
	Adf
)

// String returns a string representation of the InputSource.
func (s InputSource) String() string {
	switch s {
	case Platen:
		return "Platen"
	case Adf:
		return "Feeder"
	}
	return "Unknown"
}

// DecodeInputSource decodes InputSource out of its XML string form.
func DecodeInputSource(s string) InputSource {
	switch s {
	case "Platen":
		return Platen
	case "Feeder", "Adf":
		return Adf
	}
	return UnknownInputSource
}

// decodeInputSource decodes InputSource from the XML tree.
func decodeInputSource(root xmldoc.Element) (InputSource, error) {
	return decodeEnum(root, DecodeInputSource)
}

// toXML generates the XML tree for the InputSource.
func (s InputSource) toXML(name string) xmldoc.Element {
	return xmldoc.Element{Name: name, Text: s.String()}
}
