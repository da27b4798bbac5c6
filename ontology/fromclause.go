package ontology

import "fmt"

// GraphType distinguishes the composer's two entry modes: data-graph
// queries (which must also pull in deprecated and audit graphs) versus
// ontology-only queries.
type GraphType string

const (
	GraphTypeData     GraphType = "data"
	GraphTypeOntology GraphType = "ontology"
)

// FromClauseRequest captures every input the composer needs to build an
// ordered, deduplicated set of FROM clauses.
type FromClauseRequest struct {
	GraphType            GraphType
	Tenant               string
	Workspace            string
	IncludeGlobal        bool
	IncludeTenant        bool
	IncludeWorkspace     bool
	SpecificGraphs       []string
	AdditionalWorkspaces []string
	VKGGraphPattern      string
	OntologyID           string
}

// ComposeFromClauses builds the ordered list of "FROM <iri>" strings for a
// SPARQL query body. Order is: ontology graphs (global, tenant, workspace)
// in that fixed order when requested; then, for data-graph queries only,
// the primary (tenant, workspace) data, deprecated and audit graphs
// followed by the additional workspaces' data graphs; then any
// caller-specified graphs; then the VKG pattern graph if present.
func ComposeFromClauses(req FromClauseRequest) ([]string, error) {
	seen := make(map[string]bool)
	var clauses []string

	add := func(iri string) {
		if iri == "" || seen[iri] {
			return
		}
		seen[iri] = true
		clauses = append(clauses, fmt.Sprintf("FROM <%s>", iri))
	}

	if req.IncludeGlobal {
		iri, err := GlobalOntologyIRI(req.OntologyID)
		if err != nil {
			return nil, err
		}
		add(iri)
	}
	if req.IncludeTenant {
		iri, err := TenantOntologyIRI(req.Tenant, req.OntologyID)
		if err != nil {
			return nil, err
		}
		add(iri)
	}
	if req.IncludeWorkspace {
		iri, err := WorkspaceOntologyIRI(req.Tenant, req.Workspace, req.OntologyID)
		if err != nil {
			return nil, err
		}
		add(iri)
	}

	if req.GraphType == GraphTypeData {
		dataIRI, err := GraphIRI(GraphKindData, req.Tenant, req.Workspace)
		if err != nil {
			return nil, err
		}
		add(dataIRI)

		deprecatedIRI, err := GraphIRI(GraphKindDeprecated, req.Tenant, req.Workspace)
		if err != nil {
			return nil, err
		}
		add(deprecatedIRI)

		auditIRI, err := GraphIRI(GraphKindAudit, req.Tenant, req.Workspace)
		if err != nil {
			return nil, err
		}
		add(auditIRI)

		for _, workspace := range req.AdditionalWorkspaces {
			iri, err := GraphIRI(GraphKindData, req.Tenant, workspace)
			if err != nil {
				return nil, err
			}
			add(iri)
		}
	}

	for _, graph := range req.SpecificGraphs {
		add(graph)
	}

	if req.VKGGraphPattern != "" {
		add(req.VKGGraphPattern)
	}

	return clauses, nil
}
