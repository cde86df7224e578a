package observability

import (
	"go.opentelemetry.io/otel/attribute"
)

// Scorer semantic convention attributes.
var (
	AttrQuery      = attribute.Key("msgf.query")
	AttrResolved   = attribute.Key("msgf.resolved")
	AttrTier       = attribute.Key("msgf.tier")
	AttrSource     = attribute.Key("msgf.source")
	AttrLoadResult = attribute.Key("msgf.load.result")
	AttrParamFile  = attribute.Key("msgf.param_file")
)

// Load results reported to RecordLoad.
const (
	LoadHit   = "hit"
	LoadMiss  = "miss"
	LoadError = "error"
)

// ResolveOperation creates attributes for a resolution of the query named
// query.
func ResolveOperation(query string) []attribute.KeyValue {
	return []attribute.KeyValue{AttrQuery.String(query)}
}

// LoadOperation creates attributes for reading file from a source.
func LoadOperation(source, file string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrSource.String(source),
		AttrParamFile.String(file),
	}
}
