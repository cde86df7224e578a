package condition

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Identifiers accepted in addition to the canonical names (matched after
// folding). They mirror the constant spellings used by older
// configuration files.
var (
	instrumentAliases = map[string]Instrument{
		"low_res_ltq":         LowResLTQ,
		"lowresolutionltq":    LowResLTQ,
		"high_res_ltq":        HighResLTQ,
		"highresolutionltq":   HighResLTQ,
		"q_exactive":          QExactive,
		"time_of_flight":      TOF,
		"low_resolution_ltq":  LowResLTQ,
		"high_resolution_ltq": HighResLTQ,
	}
	enzymeAliases = map[string]Enzyme{
		"trypsin":     Trypsin,
		"unspecific":  UnspecificCleavage,
		"no_cleavage": NoCleavage,
	}
	protocolAliases = map[string]Protocol{
		"phospho": Phosphorylation,
	}
)

// fold maps s to the form names are compared in: NFKC-normalized and
// case-folded, so full-width or mixed-case input from config files matches.
func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

// ParseMethod parses a method name. An empty string yields MethodUnspecified.
func ParseMethod(s string) (Method, error) {
	f := fold(s)
	if f == "" {
		return MethodUnspecified, nil
	}
	for _, m := range AllMethods() {
		if fold(m.String()) == f {
			return m, nil
		}
	}
	return MethodUnspecified, fmt.Errorf("unknown fragmentation method %q", s)
}

// ParseInstrument parses an instrument class name. An empty string yields
// InstrumentUnspecified.
func ParseInstrument(s string) (Instrument, error) {
	f := fold(s)
	if f == "" {
		return InstrumentUnspecified, nil
	}
	for _, i := range AllInstruments() {
		if fold(i.String()) == f {
			return i, nil
		}
	}
	if i, ok := instrumentAliases[f]; ok {
		return i, nil
	}
	return InstrumentUnspecified, fmt.Errorf("unknown instrument type %q", s)
}

// ParseEnzyme parses an enzyme name. An empty string yields EnzymeUnspecified.
func ParseEnzyme(s string) (Enzyme, error) {
	f := fold(s)
	if f == "" {
		return EnzymeUnspecified, nil
	}
	for _, e := range AllEnzymes() {
		if fold(e.String()) == f {
			return e, nil
		}
	}
	if e, ok := enzymeAliases[f]; ok {
		return e, nil
	}
	return EnzymeUnspecified, fmt.Errorf("unknown enzyme %q", s)
}

// ParseProtocol parses a protocol name. An empty string yields
// ProtocolUnspecified.
func ParseProtocol(s string) (Protocol, error) {
	f := fold(s)
	if f == "" {
		return ProtocolUnspecified, nil
	}
	for _, p := range AllProtocols() {
		if fold(p.String()) == f {
			return p, nil
		}
	}
	if p, ok := protocolAliases[f]; ok {
		return p, nil
	}
	return ProtocolUnspecified, fmt.Errorf("unknown protocol %q", s)
}

// ParseQuery parses the four textual fields of a query. Empty fields are left
// unspecified.
func ParseQuery(method, instrument, enzyme, protocol string) (Query, error) {
	var (
		q   Query
		err error
	)
	if q.Method, err = ParseMethod(method); err != nil {
		return Query{}, err
	}
	if q.Instrument, err = ParseInstrument(instrument); err != nil {
		return Query{}, err
	}
	if q.Enzyme, err = ParseEnzyme(enzyme); err != nil {
		return Query{}, err
	}
	if q.Protocol, err = ParseProtocol(protocol); err != nil {
		return Query{}, err
	}
	return q, nil
}
