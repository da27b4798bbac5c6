// Package events defines the typed extraction events written by the
// extraction pipeline and consumed by the store adapters and the audit
// engine. One constructor per event kind mirrors the extraction runtime's
// event-construction style, with a fresh random (UUID) id stamped on every
// event.
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClaimStatus places an extracted fact on the CLAIM < FACT lattice.
type ClaimStatus string

const (
	ClaimStatusClaim ClaimStatus = "CLAIM"
	ClaimStatusFact  ClaimStatus = "FACT"
)

// Span identifies a character range within a document chunk.
type Span struct {
	Start int
	End   int
}

// Envelope carries the fields every event type shares: the tenant/workspace
// scope, the ontology version it was classified against, and which
// extraction run and source document produced it.
type Envelope struct {
	EventID         string
	TenantID        string
	WorkspaceID     string
	OntologyVersion string
	ExtractionRun   string
	SourceType      string
	SourceID        string
	CreatedAt       time.Time
}

func newEnvelope(tenantID, workspaceID, ontologyVersion, extractionRun, sourceType, sourceID string) Envelope {
	return Envelope{
		EventID:         uuid.NewString(),
		TenantID:        tenantID,
		WorkspaceID:     workspaceID,
		OntologyVersion: ontologyVersion,
		ExtractionRun:   extractionRun,
		SourceType:      sourceType,
		SourceID:        sourceID,
		CreatedAt:       time.Now(),
	}
}

// UpsertNode creates or updates an LPG entity.
type UpsertNode struct {
	Envelope
	Class        string
	CanonicalID  string
	IdentityKeys map[string]string
	Attributes   map[string]interface{}
	DisplayName  string
	Confidence   float64
	ClaimStatus  ClaimStatus
	Status       string
	SourceDocIDs []string
}

// NewUpsertNode builds an UpsertNode event.
func NewUpsertNode(env Envelope, class, canonicalID, displayName string, identityKeys map[string]string, attributes map[string]interface{}, confidence float64, claimStatus ClaimStatus, status string, sourceDocIDs []string) UpsertNode {
	env.EventID = uuid.NewString()
	return UpsertNode{
		Envelope:     env,
		Class:        class,
		CanonicalID:  canonicalID,
		IdentityKeys: identityKeys,
		Attributes:   attributes,
		DisplayName:  displayName,
		Confidence:   confidence,
		ClaimStatus:  claimStatus,
		Status:       status,
		SourceDocIDs: sourceDocIDs,
	}
}

// UpsertEdge creates or updates a relationship between two LPG entities.
type UpsertEdge struct {
	Envelope
	RelationshipType string
	FromCanonicalID  string
	ToCanonicalID    string
	FromClass        string
	ToClass          string
	Confidence       float64
	ClaimStatus      ClaimStatus
	ExtractedAt      time.Time
	Attributes       map[string]interface{}
}

// NewUpsertEdge builds an UpsertEdge event.
func NewUpsertEdge(env Envelope, relationshipType, fromID, toID, fromClass, toClass string, confidence float64, claimStatus ClaimStatus, attributes map[string]interface{}) UpsertEdge {
	env.EventID = uuid.NewString()
	return UpsertEdge{
		Envelope:         env,
		RelationshipType: relationshipType,
		FromCanonicalID:  fromID,
		ToCanonicalID:    toID,
		FromClass:        fromClass,
		ToClass:          toClass,
		Confidence:       confidence,
		ClaimStatus:      claimStatus,
		ExtractedAt:      time.Now(),
		Attributes:       attributes,
	}
}

// UpsertAssertion reifies a (subject, predicate, object) statement so it can
// carry its own confidence and evidence independent of the edge it backs.
type UpsertAssertion struct {
	Envelope
	AssertionID        string
	SubjectCanonicalID string
	Predicate          string
	ObjectCanonicalID  string
	ChunkID            string
	Span               Span
	Quote              string
	Confidence         float64
	ClaimStatus        ClaimStatus
	Method             string
}

// NewUpsertAssertion builds an UpsertAssertion event.
func NewUpsertAssertion(env Envelope, assertionID, subjectID, predicate, objectID, chunkID string, span Span, quote string, confidence float64, claimStatus ClaimStatus, method string) UpsertAssertion {
	env.EventID = uuid.NewString()
	return UpsertAssertion{
		Envelope:           env,
		AssertionID:        assertionID,
		SubjectCanonicalID: subjectID,
		Predicate:          predicate,
		ObjectCanonicalID:  objectID,
		ChunkID:            chunkID,
		Span:               span,
		Quote:              quote,
		Confidence:         confidence,
		ClaimStatus:        claimStatus,
		Method:             method,
	}
}

// EvidenceTargetType distinguishes what an EvidenceLink backs.
type EvidenceTargetType string

const (
	EvidenceTargetNode      EvidenceTargetType = "node"
	EvidenceTargetAssertion EvidenceTargetType = "assertion"
)

// EvidenceLink connects an extracted node or assertion back to the source
// chunk, page, and quote it was derived from.
type EvidenceLink struct {
	Envelope
	TargetType        EvidenceTargetType
	TargetCanonicalID string
	AssertionID       string
	ChunkID           string
	DocumentID        string
	Span              Span
	Page              int
	SectionPath       string
	Quote             string
	TextHash          string
	Confidence        float64
	Method            string
}

// NewEvidenceLink builds an EvidenceLink event. Exactly one of
// targetCanonicalID/assertionID should be set, matching TargetType.
func NewEvidenceLink(env Envelope, targetType EvidenceTargetType, targetCanonicalID, assertionID, chunkID, documentID string, span Span, page int, sectionPath, quote, textHash string, confidence float64, method string) EvidenceLink {
	env.EventID = uuid.NewString()
	return EvidenceLink{
		Envelope:          env,
		TargetType:        targetType,
		TargetCanonicalID: targetCanonicalID,
		AssertionID:       assertionID,
		ChunkID:           chunkID,
		DocumentID:        documentID,
		Span:              span,
		Page:              page,
		SectionPath:       sectionPath,
		Quote:             quote,
		TextHash:          textHash,
		Confidence:        confidence,
		Method:            method,
	}
}

// CandidateConcept records a term the ontology has no class for yet, for
// later ontology-evolution review.
type CandidateConcept struct {
	Envelope
	Term                string
	SuggestedClass      string
	SuggestedDefinition string
	EvidenceChunks      []string
	Frequency           int
}

// NewCandidateConcept builds a CandidateConcept event.
func NewCandidateConcept(env Envelope, term, suggestedClass, suggestedDefinition string, evidenceChunks []string, frequency int) CandidateConcept {
	env.EventID = uuid.NewString()
	return CandidateConcept{
		Envelope:            env,
		Term:                term,
		SuggestedClass:      suggestedClass,
		SuggestedDefinition: suggestedDefinition,
		EvidenceChunks:      evidenceChunks,
		Frequency:           frequency,
	}
}

// QuarantineRecord replaces an event that failed validation or confidence
// gating; it is never written to the serving graph.
type QuarantineRecord struct {
	Envelope
	OriginalEvent    interface{}
	FailureReason    string
	ValidationErrors []string
	Recoverable      bool
	SuggestedFix     string
	Confidence       float64
}

// NewQuarantineRecord builds a QuarantineRecord event.
func NewQuarantineRecord(env Envelope, originalEvent interface{}, failureReason string, validationErrors []string, recoverable bool, suggestedFix string, confidence float64) QuarantineRecord {
	env.EventID = uuid.NewString()
	return QuarantineRecord{
		Envelope:         env,
		OriginalEvent:    originalEvent,
		FailureReason:    failureReason,
		ValidationErrors: validationErrors,
		Recoverable:      recoverable,
		SuggestedFix:     suggestedFix,
		Confidence:       confidence,
	}
}

// BatchStats tallies event counts by kind as a GraphEventBatch is built.
type BatchStats struct {
	Nodes             int
	Edges             int
	Assertions        int
	EvidenceLinks     int
	CandidateConcepts int
	Quarantined       int
}

// GraphEventBatch groups every event produced during one extraction run,
// maintaining running statistics as events are appended rather than
// recomputing them on read.
type GraphEventBatch struct {
	BatchID           string
	Run               string
	Nodes             []UpsertNode
	Edges             []UpsertEdge
	Assertions        []UpsertAssertion
	EvidenceLinks     []EvidenceLink
	CandidateConcepts []CandidateConcept
	Quarantine        []QuarantineRecord
	Stats             BatchStats
}

// NewGraphEventBatch creates an empty batch for the given extraction run.
func NewGraphEventBatch(run string) *GraphEventBatch {
	return &GraphEventBatch{
		BatchID: fmt.Sprintf("batch_%s", uuid.NewString()),
		Run:     run,
	}
}

func (b *GraphEventBatch) AddNode(e UpsertNode) {
	b.Nodes = append(b.Nodes, e)
	b.Stats.Nodes++
}

func (b *GraphEventBatch) AddEdge(e UpsertEdge) {
	b.Edges = append(b.Edges, e)
	b.Stats.Edges++
}

func (b *GraphEventBatch) AddAssertion(e UpsertAssertion) {
	b.Assertions = append(b.Assertions, e)
	b.Stats.Assertions++
}

func (b *GraphEventBatch) AddEvidenceLink(e EvidenceLink) {
	b.EvidenceLinks = append(b.EvidenceLinks, e)
	b.Stats.EvidenceLinks++
}

func (b *GraphEventBatch) AddCandidateConcept(e CandidateConcept) {
	b.CandidateConcepts = append(b.CandidateConcepts, e)
	b.Stats.CandidateConcepts++
}

func (b *GraphEventBatch) AddQuarantine(e QuarantineRecord) {
	b.Quarantine = append(b.Quarantine, e)
	b.Stats.Quarantined++
}

// Total returns the number of events accumulated across every kind,
// including quarantined ones.
func (b *GraphEventBatch) Total() int {
	return b.Stats.Nodes + b.Stats.Edges + b.Stats.Assertions +
		b.Stats.EvidenceLinks + b.Stats.CandidateConcepts + b.Stats.Quarantined
}
