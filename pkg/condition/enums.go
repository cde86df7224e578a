// Package condition defines the closed enumerations that describe an
// experimental condition (fragmentation method, instrument class, enzyme,
// acquisition protocol) and the Key used to address trained scoring
// parameters for it.
//
// Every enumeration reserves its zero value for "unspecified". Unspecified
// values are only meaningful inside a Query; Normalize replaces them with
// defaults so that a Key never carries one.
package condition

// Method is a spectrum fragmentation (activation) method.
type Method int

const (
	MethodUnspecified Method = iota
	CID
	ETD
	HCD
	PQD // deprecated alias of CID
	UVPD
	Fusion    // sentinel: no scoring model applies
	AsWritten // taken from the spectrum file
)

var methodNames = [...]string{
	MethodUnspecified: "",
	CID:               "CID",
	ETD:               "ETD",
	HCD:               "HCD",
	PQD:               "PQD",
	UVPD:              "UVPD",
	Fusion:            "FUSION",
	AsWritten:         "ASWRITTEN",
}

// String returns the canonical name used in parameter file names.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "Method(?)"
	}
	return methodNames[m]
}

// IsElectronBased reports whether the method fragments by electron transfer
// or capture.
func (m Method) IsElectronBased() bool { return m == ETD }

// AllMethods returns every registered method in registration order.
func AllMethods() []Method {
	return []Method{CID, ETD, HCD, PQD, UVPD, Fusion, AsWritten}
}

// Instrument is a detector resolution class.
type Instrument int

const (
	InstrumentUnspecified Instrument = iota
	LowResLTQ
	HighResLTQ
	TOF
	QExactive
)

var instrumentNames = [...]string{
	InstrumentUnspecified: "",
	LowResLTQ:             "LowRes",
	HighResLTQ:            "HighRes",
	TOF:                   "TOF",
	QExactive:             "QExactive",
}

func (i Instrument) String() string {
	if i < 0 || int(i) >= len(instrumentNames) {
		return "Instrument(?)"
	}
	return instrumentNames[i]
}

// AllInstruments returns every registered instrument class in registration order.
func AllInstruments() []Instrument {
	return []Instrument{LowResLTQ, HighResLTQ, TOF, QExactive}
}

// Terminus classifies the cleavage specificity of an enzyme.
type Terminus int

const (
	Unspecific Terminus = iota
	CTerminal
	NTerminal
)

func (t Terminus) String() string {
	switch t {
	case CTerminal:
		return "C-term"
	case NTerminal:
		return "N-term"
	default:
		return "unspecific"
	}
}

// Enzyme is a proteolytic enzyme.
type Enzyme int

const (
	EnzymeUnspecified Enzyme = iota
	UnspecificCleavage
	Trypsin
	Chymotrypsin
	LysC
	LysN
	GluC
	ArgC
	AspN
	ALP
	NoCleavage
)

var enzymeInfo = [...]struct {
	name     string
	terminus Terminus
}{
	EnzymeUnspecified:  {"", Unspecific},
	UnspecificCleavage: {"UnspecificCleavage", Unspecific},
	Trypsin:            {"Tryp", CTerminal},
	Chymotrypsin:       {"Chymotrypsin", CTerminal},
	LysC:               {"LysC", CTerminal},
	LysN:               {"LysN", NTerminal},
	GluC:               {"GluC", CTerminal},
	ArgC:               {"ArgC", CTerminal},
	AspN:               {"AspN", NTerminal},
	ALP:                {"aLP", CTerminal},
	NoCleavage:         {"NoCleavage", Unspecific},
}

func (e Enzyme) String() string {
	if e < 0 || int(e) >= len(enzymeInfo) {
		return "Enzyme(?)"
	}
	return enzymeInfo[e].name
}

// Terminus returns the cleavage class of the enzyme.
func (e Enzyme) Terminus() Terminus {
	if e < 0 || int(e) >= len(enzymeInfo) {
		return Unspecific
	}
	return enzymeInfo[e].terminus
}

// IsCTerm reports whether the enzyme cleaves C-terminally.
func (e Enzyme) IsCTerm() bool { return e.Terminus() == CTerminal }

// IsNTerm reports whether the enzyme cleaves N-terminally.
func (e Enzyme) IsNTerm() bool { return e.Terminus() == NTerminal }

// AllEnzymes returns every registered enzyme in registration order.
func AllEnzymes() []Enzyme {
	return []Enzyme{UnspecificCleavage, Trypsin, Chymotrypsin, LysC, LysN, GluC, ArgC, AspN, ALP, NoCleavage}
}

// Protocol is a sample preparation / acquisition protocol.
type Protocol int

const (
	ProtocolUnspecified Protocol = iota
	Standard
	Phosphorylation
	ITRAQ
	ITRAQPhospho
	TMT
)

var protocolNames = [...]string{
	ProtocolUnspecified: "",
	Standard:            "Standard",
	Phosphorylation:     "Phosphorylation",
	ITRAQ:               "iTRAQ",
	ITRAQPhospho:        "iTRAQPhospho",
	TMT:                 "TMT",
}

func (p Protocol) String() string {
	if p < 0 || int(p) >= len(protocolNames) {
		return "Protocol(?)"
	}
	return protocolNames[p]
}

// AllProtocols returns every registered protocol in registration order.
func AllProtocols() []Protocol {
	return []Protocol{Standard, Phosphorylation, ITRAQ, ITRAQPhospho, TMT}
}
