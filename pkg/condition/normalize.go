package condition

// Query is a raw, possibly partial, resolution request. Zero-valued fields
// mean "not specified" and are filled in by Normalize.
type Query struct {
	Method     Method
	Instrument Instrument
	Enzyme     Enzyme
	Protocol   Protocol
}

// Defaults applied by Normalize.
const (
	DefaultMethod     = CID
	DefaultInstrument = LowResLTQ
	DefaultEnzyme     = Trypsin
	DefaultProtocol   = Standard
)

// Normalize maps a query onto a valid Key. It never fails: gaps are filled
// with defaults, PQD is folded into CID, and HCD is pinned to a
// high-resolution detector since HCD parameters only exist for those.
func Normalize(q Query) Key {
	k := Key(q)
	if k.Method == MethodUnspecified || k.Method == PQD {
		k.Method = DefaultMethod
	}
	if k.Enzyme == EnzymeUnspecified {
		k.Enzyme = DefaultEnzyme
	}
	if k.Instrument == InstrumentUnspecified {
		k.Instrument = DefaultInstrument
	}
	if k.Protocol == ProtocolUnspecified {
		k.Protocol = DefaultProtocol
	}
	if k.Method == HCD && k.Instrument != HighResLTQ && k.Instrument != QExactive {
		k.Instrument = QExactive
	}
	return k
}

// LegacyQuery expresses the older (method, enzyme) lookup as a Query. The
// instrument defaults to LowResLTQ, or HighResLTQ for HCD, and the protocol to
// Standard; the result still goes through Normalize like any other query.
func LegacyQuery(m Method, e Enzyme) Query {
	inst := LowResLTQ
	if m == HCD {
		inst = HighResLTQ
	}
	return Query{Method: m, Instrument: inst, Enzyme: e, Protocol: Standard}
}
