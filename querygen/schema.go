package querygen

import "purplefabric.ai/graphrag/store/lpg"

// DataProperty is one typed data property the SPARQL priming text lists
// under its declaring class, per §4.6 "data properties grouped by domain
// class and typed range".
type DataProperty struct {
	Name  string
	Range string
}

// ObjectProperty is one object property the SPARQL priming text lists
// under its declaring class, per §4.6 "object properties grouped by
// domain class with range".
type ObjectProperty struct {
	Name  string
	Range string
}

// ClassInfo is one ontology class as SPARQL priming text: its IRI, data
// properties, and object properties.
type ClassInfo struct {
	Name             string
	IRI              string
	DataProperties   []DataProperty
	ObjectProperties []ObjectProperty
}

const maxSPARQLSampleRows = 30

// SPARQLSchema is the priming input to GenerateSPARQL: enumerated classes
// and up to maxSPARQLSampleRows sampled value rows, per §4.6.
type SPARQLSchema struct {
	Classes    []ClassInfo
	SampleRows []map[string]string
}

// Truncated returns a copy of s with SampleRows capped to
// maxSPARQLSampleRows, the hard ceiling §4.6 specifies.
func (s SPARQLSchema) Truncated() SPARQLSchema {
	if len(s.SampleRows) <= maxSPARQLSampleRows {
		return s
	}
	out := s
	out.SampleRows = append([]map[string]string{}, s.SampleRows[:maxSPARQLSampleRows]...)
	return out
}

// CypherSchema is the priming input to GenerateCypher: it reuses the LPG
// adapter's own schema introspection shape (node labels, direction-exact
// relationship patterns, sampled property values) directly, since §4.6
// requires the Cypher priming text carry exactly what GetSchema already
// returns.
type CypherSchema = lpg.Schema
