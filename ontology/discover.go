package ontology

import "strings"

// Config holds fabric-wide settings that the redesign flags surface as
// configuration rather than hardcoding.
type Config struct {
	// ExcludedPredicatePrefixes lists pf: predicate prefixes that
	// DiscoverDataGraphEntities filters out of its results. The original
	// implementation hardcoded this list; it is configuration here.
	ExcludedPredicatePrefixes []string
}

// DefaultConfig returns the fabric's baseline predicate exclusions:
// bookkeeping predicates that describe an entity's own record-keeping
// rather than a fact about the entity.
func DefaultConfig() Config {
	return Config{
		ExcludedPredicatePrefixes: []string{
			"pf:internal",
			"pf:systemMetadata",
			"pf:auditTrail",
		},
	}
}

// GraphEntity is one row discovered by DiscoverDataGraphEntities: a
// subject/predicate/object triple pulled from a data graph.
type GraphEntity struct {
	Subject   string
	Predicate string
	Object    string
}

// DiscoverDataGraphEntities filters triples out of a raw result set whose
// predicate matches one of cfg's excluded prefixes, preserving order.
func DiscoverDataGraphEntities(cfg Config, triples []GraphEntity) []GraphEntity {
	if len(cfg.ExcludedPredicatePrefixes) == 0 {
		return triples
	}
	filtered := make([]GraphEntity, 0, len(triples))
	for _, triple := range triples {
		if isExcluded(cfg, triple.Predicate) {
			continue
		}
		filtered = append(filtered, triple)
	}
	return filtered
}

func isExcluded(cfg Config, predicate string) bool {
	for _, prefix := range cfg.ExcludedPredicatePrefixes {
		if strings.HasPrefix(predicate, prefix) {
			return true
		}
	}
	return false
}
