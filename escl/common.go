// Package escl implements the subset of the eSCL scanner protocol this
// service needs to drive a scanner through the acquire -> fetch -> delete
// cycle: POST a scan intent, GET the resulting document, DELETE the job.
//
// It follows the teacher toolkit's modeling style for eSCL types (small,
// independently decodable/encodable enums with a String/Decode pair) but
// is scoped to the fields ScanOptions actually carries — color-mode and
// CCD-channel capability negotiation from the original mfp/escl package is
// out of scope here and was dropped (see DESIGN.md).
package escl

import (
	"strconv"

	"github.com/innohassle/printhub/internal/xmldoc"
)

// XML namespace prefixes used by the eSCL wire format.
const (
	NsPWG  = "pwg"
	NsScan = "scan"
)

// NsMap is the namespace table used to encode/decode eSCL documents.
var NsMap = xmldoc.Namespace{
	{URL: "http://www.pwg.org/schemas/2010/12/sm", Prefix: NsPWG},
	{URL: "http://schemas.hp.com/imaging/escl/2011/05/03", Prefix: NsScan},
}

// HTTPContentType is the Content-Type used for eSCL XML bodies.
const HTTPContentType = `application/xml; charset="utf-8"`

// decodeEnum decodes an XML element's text into an enum of type T using
// decode, stripping an optional namespace prefix first. It fails if decode
// reports the zero (Unknown...) value.
func decodeEnum[T comparable](root xmldoc.Element, decode func(string) T,
	prefix ...string) (val T, err error) {

	s := root.Text
	if len(prefix) > 0 {
		p := prefix[0] + ":"
		if len(s) > len(p) && s[:len(p)] == p {
			s = s[len(p):]
		}
	}

	val = decode(s)

	var zero T
	if val == zero {
		err = xmldoc.XMLErrWrap(root,
			xmldoc.XMLErrMissed("valid value, got "+root.Text))
	}
	return
}

// decodeNonNegativeInt decodes a non-negative integer from an XML element.
func decodeNonNegativeInt(root xmldoc.Element) (int, error) {
	n, err := strconv.Atoi(root.Text)
	if err != nil {
		return 0, xmldoc.XMLErrWrap(root, err)
	}
	if n < 0 {
		return 0, xmldoc.XMLErrWrap(root,
			xmldoc.XMLErrMissed("non-negative integer"))
	}
	return n, nil
}
