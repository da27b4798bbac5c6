// Package canonical computes the deterministic identifiers the rest of the
// query engine uses to merge entities and assertions across documents:
// canonical_id for LPG nodes and assertion_id for reified statements. Both
// are pure functions of their inputs so that re-extracting the same fact
// from the same evidence always produces the same identifier.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// NodeID computes the canonical_id for an LPG entity: the lowercased class
// name, an underscore, and the first 16 hex characters of
// sha256("class|name|k1:v1|k2:v2|...") with identity_attrs keys sorted so
// the result is independent of map iteration order.
func NodeID(class, name string, identityAttrs map[string]string) string {
	digest := hashHex(canonicalSeed(class, name, identityAttrs))
	return strings.ToLower(class) + "_" + digest[:16]
}

// AssertionID computes the assertion_id for a reified (subject, predicate,
// object) statement tied to the evidence chunk and span it was extracted
// from: the literal prefix "assertion_" followed by the first 20 hex
// characters of sha256 over the pipe-joined fields.
func AssertionID(subjectID, predicate, objectID, chunkID string, spanStart, spanEnd int) string {
	seed := strings.Join([]string{
		subjectID,
		predicate,
		objectID,
		chunkID,
		fmt.Sprintf("%d", spanStart),
		fmt.Sprintf("%d", spanEnd),
	}, "|")
	return "assertion_" + hashHex(seed)[:20]
}

// canonicalSeed builds the "class|name|k1:v1|k2:v2|..." string with
// identity_attrs keys sorted lexicographically.
func canonicalSeed(class, name string, identityAttrs map[string]string) string {
	keys := make([]string, 0, len(identityAttrs))
	for k := range identityAttrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+2)
	parts = append(parts, class, name)
	for _, k := range keys {
		parts = append(parts, k+":"+identityAttrs[k])
	}
	return strings.Join(parts, "|")
}

func hashHex(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
