package orchestrator

import (
	"context"
	"fmt"

	"purplefabric.ai/graphrag/ontology"
	"purplefabric.ai/graphrag/querygen"
	"purplefabric.ai/graphrag/store/triplestore"
)

const sparqlSchemaSampleLimit = 50

func triplestoreOptions(req Request) triplestore.Options {
	clauses, err := ontology.ComposeFromClauses(ontology.FromClauseRequest{
		GraphType: ontology.GraphTypeData,
		Tenant:    req.TenantID,
		Workspace: req.WorkspaceID,
	})
	if err != nil {
		return triplestore.Options{}
	}
	return triplestore.Options{FromClauses: clauses}
}

// buildSPARQLSchema introspects the triplestore for the distinct classes
// visible to req's tenant/workspace scope, giving the Query Generator
// something concrete to prime against. Property-level introspection is
// left to the triplestore's own ontology import step (§4.3); this is a
// best-effort class list only.
func buildSPARQLSchema(ctx context.Context, o *Orchestrator, req Request) (querygen.SPARQLSchema, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ?class WHERE { ?s a ?class } LIMIT %d`, sparqlSchemaSampleLimit)
	bindings, err := o.Stores.Triplestore.ExecuteSPARQL(ctx, req.TenantID, req.WorkspaceID, query, triplestoreOptions(req))
	if err != nil {
		return querygen.SPARQLSchema{}, err
	}

	schema := querygen.SPARQLSchema{}
	for _, row := range bindings {
		class, ok := row["class"]
		if !ok {
			continue
		}
		schema.Classes = append(schema.Classes, querygen.ClassInfo{Name: localName(class.Value), IRI: class.Value})
	}
	return schema, nil
}

// localName trims an IRI down to its fragment or final path segment, for
// display purposes only.
func localName(iri string) string {
	for i := len(iri) - 1; i >= 0; i-- {
		if iri[i] == '#' || iri[i] == '/' {
			return iri[i+1:]
		}
	}
	return iri
}
