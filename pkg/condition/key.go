package condition

import "strings"

// Key identifies a scoring context. Keys are comparable values: two keys are
// equal iff all four fields match, so a Key can be used directly as a map key.
type Key struct {
	Method     Method
	Instrument Instrument
	Enzyme     Enzyme
	Protocol   Protocol
}

// NewKey builds a key from its four fields without normalizing them.
func NewKey(m Method, i Instrument, e Enzyme, p Protocol) Key {
	return Key{Method: m, Instrument: i, Enzyme: e, Protocol: p}
}

// Name is the canonical lookup identifier: method_instrument_enzyme, with
// _protocol appended when the protocol is not Standard.
func (k Key) Name() string {
	var b strings.Builder
	b.WriteString(k.Method.String())
	b.WriteByte('_')
	b.WriteString(k.Instrument.String())
	b.WriteByte('_')
	b.WriteString(k.Enzyme.String())
	if k.Protocol != Standard {
		b.WriteByte('_')
		b.WriteString(k.Protocol.String())
	}
	return b.String()
}

func (k Key) String() string { return k.Name() }

// IsStandard reports whether the key uses the standard protocol.
func (k Key) IsStandard() bool { return k.Protocol == Standard }

// Standardized returns the key with its protocol replaced by Standard.
func (k Key) Standardized() Key {
	k.Protocol = Standard
	return k
}

// WithEnzyme returns the key with its enzyme replaced.
func (k Key) WithEnzyme(e Enzyme) Key {
	k.Enzyme = e
	return k
}
