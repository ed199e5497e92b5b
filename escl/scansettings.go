// MFP - Miulti-Function Printers and scanners toolkit
// eSCL core protocol
//
// Copyright (C) 2024 and up by Alexander Pevzner (pzz@apevzner.com)
// See LICENSE for license terms and conditions
//
// ScanSettings - the scan intent POSTed to /{root}/ScanJobs

package escl

import (
	"strconv"

	"github.com/innohassle/printhub/internal/xmldoc"
)

// ScanSettings is the XML document the backend POSTs to ScanJobs to start
// a scan. Duplex is only meaningful (and only honored by devices) when
// InputSource is Adf, so ToXML emits scan:Duplex only for Adf and omits
// it for every other input source.
type ScanSettings struct {
	InputSource  InputSource
	Duplex       bool
	XResolution  int // DPI
	YResolution  int // DPI
	DocumentFormat string
}

// ToXML generates the XML tree for the ScanSettings intent.
func (ss ScanSettings) ToXML() xmldoc.Element {
	format := ss.DocumentFormat
	if format == "" {
		format = "application/pdf"
	}

	children := []xmldoc.Element{
		ss.InputSource.toXML(NsPWG + ":InputSource"),
		{
			Name: NsScan + ":XResolution",
			Text: strconv.Itoa(ss.XResolution),
		},
		{
			Name: NsScan + ":YResolution",
			Text: strconv.Itoa(ss.YResolution),
		},
		{
			Name: NsPWG + ":DocumentFormat",
			Text: format,
		},
	}

	if ss.InputSource == Adf {
		duplex := "false"
		if ss.Duplex {
			duplex = "true"
		}
		children = append(children, xmldoc.Element{
			Name: NsScan + ":Duplex",
			Text: duplex,
		})
	}

	return xmldoc.Element{
		Name:     NsScan + ":ScanSettings",
		Children: children,
	}
}

// DecodeScanSettings decodes ScanSettings from the XML tree. It is used by
// tests and by anything that needs to round-trip the intent we send.
func DecodeScanSettings(root xmldoc.Element) (ss ScanSettings, err error) {
	defer func() { err = xmldoc.XMLErrWrap(root, err) }()

	input := xmldoc.Lookup{Name: NsPWG + ":InputSource", Required: true}
	xres := xmldoc.Lookup{Name: NsScan + ":XResolution", Required: true}
	yres := xmldoc.Lookup{Name: NsScan + ":YResolution", Required: true}
	duplex := xmldoc.Lookup{Name: NsScan + ":Duplex"}

	missed := root.Lookup(&input, &xres, &yres, &duplex)
	if missed != nil {
		err = xmldoc.XMLErrMissed(missed.Name)
		return
	}

	ss.InputSource, err = decodeInputSource(input.Elem)
	if err != nil {
		return
	}

	ss.XResolution, err = decodeNonNegativeInt(xres.Elem)
	if err != nil {
		return
	}

	ss.YResolution, err = decodeNonNegativeInt(yres.Elem)
	if err != nil {
		return
	}

	if duplex.Found {
		ss.Duplex = duplex.Elem.Text == "true"
	}

	return
}
