// Package ontology implements the naming and scoping fabric shared by every
// triplestore operation: deterministic named-graph IRIs, FROM-clause
// composition across ontology/data/audit/deprecated graphs, and schema
// introspection caching. IRI construction follows the same hand-rolled
// net/http + string-building style the teacher uses for GraphDB named-graph
// CRUD (db/graphdb.go) rather than a generic RDF library, since none appears
// anywhere in the retrieval pack.
package ontology

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// baseIRI roots every named graph the fabric mints. It intentionally mirrors
// the namespace the spec's own examples use.
const baseIRI = "http://purplefabric.ai/graphs"

// Scope identifies which level an ontology or graph IRI belongs to.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeTenant    Scope = "tenant"
	ScopeWorkspace Scope = "workspace"
)

// GraphKind identifies the non-ontology named graphs per (tenant, workspace).
type GraphKind string

const (
	GraphKindData       GraphKind = "data"
	GraphKindAudit      GraphKind = "audit"
	GraphKindDeprecated GraphKind = "deprecated"
)

func requireNonEmpty(fields map[string]string) error {
	for name, value := range fields {
		if value == "" || value == "undefined" {
			return fmt.Errorf("ontology: %s must not be empty or \"undefined\"", name)
		}
	}
	return nil
}

// GlobalOntologyIRI builds http://.../graphs/global/ontology/{ontologyId}.
func GlobalOntologyIRI(ontologyID string) (string, error) {
	if err := requireNonEmpty(map[string]string{"ontologyId": ontologyID}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/global/ontology/%s", baseIRI, ontologyID), nil
}

// TenantOntologyIRI builds http://.../graphs/tenant/{tenant}/ontology/{ontologyId}.
func TenantOntologyIRI(tenant, ontologyID string) (string, error) {
	if err := requireNonEmpty(map[string]string{"tenant": tenant, "ontologyId": ontologyID}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/tenant/%s/ontology/%s", baseIRI, tenant, ontologyID), nil
}

// WorkspaceOntologyIRI builds
// http://.../graphs/tenant/{t}/workspace/{w}/ontology/{ontologyId}.
func WorkspaceOntologyIRI(tenant, workspace, ontologyID string) (string, error) {
	if err := requireNonEmpty(map[string]string{"tenant": tenant, "workspace": workspace, "ontologyId": ontologyID}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/tenant/%s/workspace/%s/ontology/%s", baseIRI, tenant, workspace, ontologyID), nil
}

// OntologyIRI builds the ontology IRI for the given scope, dispatching to
// the scope-specific builder above.
func OntologyIRI(scope Scope, tenant, workspace, ontologyID string) (string, error) {
	switch scope {
	case ScopeGlobal:
		return GlobalOntologyIRI(ontologyID)
	case ScopeTenant:
		return TenantOntologyIRI(tenant, ontologyID)
	case ScopeWorkspace:
		return WorkspaceOntologyIRI(tenant, workspace, ontologyID)
	default:
		return "", fmt.Errorf("ontology: unknown scope %q", scope)
	}
}

// GraphIRI builds the data/audit/deprecated graph IRI for (tenant, workspace).
func GraphIRI(kind GraphKind, tenant, workspace string) (string, error) {
	if err := requireNonEmpty(map[string]string{"tenant": tenant, "workspace": workspace}); err != nil {
		return "", err
	}
	switch kind {
	case GraphKindData, GraphKindAudit, GraphKindDeprecated:
		return fmt.Sprintf("%s/tenant/%s/workspace/%s/%s", baseIRI, tenant, workspace, string(kind)), nil
	default:
		return "", fmt.Errorf("ontology: unknown graph kind %q", kind)
	}
}

// ExtractOntologyID is total: given any IRI it always returns a non-empty
// id, trying (in order) a fragment, a trailing "/ontology/{id}" segment,
// the last path segment, and finally a content hash of the IRI itself.
func ExtractOntologyID(iri string) string {
	if hashIdx := strings.LastIndex(iri, "#"); hashIdx != -1 && hashIdx < len(iri)-1 {
		return iri[hashIdx+1:]
	}

	const marker = "/ontology/"
	if idx := strings.LastIndex(iri, marker); idx != -1 {
		id := iri[idx+len(marker):]
		id = strings.TrimRight(id, "/")
		if id != "" {
			return id
		}
	}

	trimmed := strings.TrimRight(iri, "/")
	if slashIdx := strings.LastIndex(trimmed, "/"); slashIdx != -1 && slashIdx < len(trimmed)-1 {
		segment := trimmed[slashIdx+1:]
		if segment != "" {
			return segment
		}
	}

	sum := sha256.Sum256([]byte(iri))
	return hex.EncodeToString(sum[:])[:16]
}
