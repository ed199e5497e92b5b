// Package registry holds the immutable-after-startup device catalog: the
// configured printers and scanners, keyed the way callers address them
// (CUPS name, scanner name).
package registry

import (
	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/config"
)

// Printer is a printer entry as the rest of the service sees it.
type Printer struct {
	DisplayName string
	CupsName    string
	IPPEndpoint string
}

// Scanner is a scanner entry as the rest of the service sees it.
type Scanner struct {
	DisplayName string
	Name        string
	ESCLBaseURL string
}

// Registry is the read-only device catalog, built once at startup.
type Registry struct {
	printers map[string]Printer
	scanners map[string]Scanner

	printerList []Printer
	scannerList []Scanner
}

// New builds a Registry from loaded settings.
func New(s *config.Settings) *Registry {
	r := &Registry{
		printers: make(map[string]Printer, len(s.Printers)),
		scanners: make(map[string]Scanner, len(s.Scanners)),
	}

	for _, p := range s.Printers {
		entry := Printer{
			DisplayName: p.DisplayName,
			CupsName:    p.CupsName,
			IPPEndpoint: p.IPPEndpoint,
		}
		r.printers[p.CupsName] = entry
		r.printerList = append(r.printerList, entry)
	}

	for _, sc := range s.Scanners {
		entry := Scanner{
			DisplayName: sc.DisplayName,
			Name:        sc.Name,
			ESCLBaseURL: sc.ESCLBaseURL,
		}
		r.scanners[sc.Name] = entry
		r.scannerList = append(r.scannerList, entry)
	}

	return r
}

// Printers returns the full printer catalog, in configuration order.
func (r *Registry) Printers() []Printer {
	return append([]Printer(nil), r.printerList...)
}

// Scanners returns the full scanner catalog, in configuration order.
func (r *Registry) Scanners() []Scanner {
	return append([]Scanner(nil), r.scannerList...)
}

// Printer looks a printer up by its CUPS name.
func (r *Registry) Printer(cupsName string) (Printer, error) {
	p, ok := r.printers[cupsName]
	if !ok {
		return Printer{}, apperr.Newf(apperr.InvalidArgument,
			"no such printer: %s", cupsName)
	}
	return p, nil
}

// Scanner looks a scanner up by its name.
func (r *Registry) Scanner(name string) (Scanner, error) {
	sc, ok := r.scanners[name]
	if !ok {
		return Scanner{}, apperr.Newf(apperr.InvalidArgument,
			"no such scanner: %s", name)
	}
	return sc, nil
}
