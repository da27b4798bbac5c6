package extraction

// PropertyDef describes one data property a class may carry and its xsd-
// flavored range, per §4.4's "data-property cardinalities" priming input.
type PropertyDef struct {
	Name  string
	Range string // "integer", "decimal", "date", "dateTime", "boolean", "anyURI", "string"
}

// ClassDef is one allowed entity class: its data properties and which of
// them jointly form identity_attrs for canonical_id computation.
type ClassDef struct {
	Name         string
	Properties   []PropertyDef
	IdentityKeys []string
}

// RelationshipDef is one allowed relationship type with its domain→range.
type RelationshipDef struct {
	Type   string
	Domain string
	Range  string
}

// OntologySlice is the ontology version an extraction run is classified
// and validated against: allowed classes (with typed property ranges),
// allowed relationships (with domain→range), and property cardinalities,
// per §4.4 Extract/Validate.
type OntologySlice struct {
	Version       string
	Classes       map[string]ClassDef
	Relationships map[string]RelationshipDef
	// Cardinalities keys "Class.property" to a maximum occurrence count; 0
	// means unbounded.
	Cardinalities map[string]int
}

func (o OntologySlice) classDef(name string) (ClassDef, bool) {
	c, ok := o.Classes[name]
	return c, ok
}

// relationshipDef looks up relType and confirms its domain/range match
// fromClass/toClass exactly, per §4.4's "domain/range class mismatch on
// edges ⇒ Quarantine" rule.
func (o OntologySlice) relationshipDef(relType, fromClass, toClass string) (RelationshipDef, bool) {
	rel, ok := o.Relationships[relType]
	if !ok {
		return RelationshipDef{}, false
	}
	if rel.Domain != fromClass || rel.Range != toClass {
		return RelationshipDef{}, false
	}
	return rel, true
}

func (o OntologySlice) propertyDef(class ClassDef, name string) (PropertyDef, bool) {
	for _, p := range class.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDef{}, false
}
