package model

import "time"

// EvidenceInstance represents one extracted, source-attributed statement
// contributing to a claim. Identity and extracted content are immutable
// once ingested; missing qualifiers may be filled before analysis. Each
// instance is owned by the claim cluster that contains it.
type EvidenceInstance struct {
	ID                   string     `json:"id"`                    // Assigned at ingest (UUID)
	SubjectText          string     `json:"subject_text"`          // Raw subject mention
	PredicateText        string     `json:"predicate_text"`        // Raw predicate
	ObjectText           string     `json:"object_text"`           // Raw object mention
	SourceID             string     `json:"source_id"`             // Source document identifier
	Timestamp            time.Time  `json:"timestamp"`             // Publication/observation time
	TextSpan             string     `json:"text_span"`             // Raw text the statement was extracted from
	ExtractionConfidence float64    `json:"extraction_confidence"` // Upstream extractor's confidence (0-1)
	Qualifiers           Qualifiers `json:"qualifiers,omitempty"`  // Structured qualifiers

	// Resolved entity cluster IDs, filled in by the resolver
	SubjectEntity string `json:"subject_entity,omitempty"`
	ObjectEntity  string `json:"object_entity,omitempty"`
}

// Qualifiers carries structured modifiers attached to an evidence instance.
// Upstream extractors supply them when available; the pipeline fills
// missing ones from the feature-extraction helper before dependency
// analysis.
type Qualifiers struct {
	Qualified     bool          `json:"qualified,omitempty"`     // Hedged/qualified statement ("reportedly", "allegedly")
	Contradicting bool          `json:"contradicting,omitempty"` // Statement argues against the claim
	Extraordinary bool          `json:"extraordinary,omitempty"` // Consensus-displacing claim marker
	Authority     AuthorityTier `json:"authority,omitempty"`     // Source authority classification
	Quantitative  *Quantitative `json:"quantitative,omitempty"`  // Reported counts, if any

	// IndependentOrigination marks text showing the statement arose
	// independently of earlier accounts, exempting it from the temporal
	// cascade presumption.
	IndependentOrigination bool `json:"independent_origination,omitempty"`
}

// Quantitative captures reported evidence volume (used for citation
// containment analysis)
type Quantitative struct {
	Count      int     `json:"count,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Primary sources: official records, original documents
	TierSecondary AuthorityTier = 2 // Secondary sources: peer-reviewed analysis, major publishers
	TierTertiary  AuthorityTier = 3 // Tertiary sources: summaries, informal accounts
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// StrengthMultiplier scales the evidence-strength constant by source
// authority. Unclassified sources are taken at extraction confidence,
// not penalized.
func (t AuthorityTier) StrengthMultiplier() float64 {
	switch t {
	case TierPrimary:
		return 1.0
	case TierSecondary:
		return 0.85
	case TierTertiary:
		return 0.6
	default:
		return 1.0
	}
}
