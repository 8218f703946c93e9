package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pkoval/credence/internal/model"
)

// RawRecord is the upstream extraction pipeline's wire shape. The engine
// validates shape only, never extraction correctness.
type RawRecord struct {
	SubjectText          string           `json:"subject_text"`
	PredicateText        string           `json:"predicate_text"`
	ObjectText           string           `json:"object_text"`
	SourceID             string           `json:"source_id"`
	Timestamp            time.Time        `json:"timestamp"`
	TextSpan             string           `json:"text_span"`
	ExtractionConfidence float64          `json:"extraction_confidence"`
	Qualifiers           model.Qualifiers `json:"qualifiers,omitempty"`
}

// Ingest validates raw records and converts them to evidence instances.
// A malformed record is rejected with a typed error, not silently
// dropped.
func Ingest(records []RawRecord) ([]model.EvidenceInstance, error) {
	instances := make([]model.EvidenceInstance, 0, len(records))
	for i, r := range records {
		if err := validateRecord(i, r); err != nil {
			return nil, err
		}
		instances = append(instances, model.EvidenceInstance{
			ID:                   uuid.NewString(),
			SubjectText:          r.SubjectText,
			PredicateText:        r.PredicateText,
			ObjectText:           r.ObjectText,
			SourceID:             r.SourceID,
			Timestamp:            r.Timestamp,
			TextSpan:             r.TextSpan,
			ExtractionConfidence: r.ExtractionConfidence,
			Qualifiers:           r.Qualifiers,
		})
	}
	return instances, nil
}

// LoadRecords reads a JSON array of raw records from a file
func LoadRecords(path string) ([]RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return records, nil
}

func validateRecord(i int, r RawRecord) error {
	switch {
	case r.SubjectText == "":
		return &model.MalformedRecordError{Index: i, Field: "subject_text", Value: ""}
	case r.PredicateText == "":
		return &model.MalformedRecordError{Index: i, Field: "predicate_text", Value: ""}
	case r.ObjectText == "":
		return &model.MalformedRecordError{Index: i, Field: "object_text", Value: ""}
	case r.SourceID == "":
		return &model.MalformedRecordError{Index: i, Field: "source_id", Value: ""}
	case r.Timestamp.IsZero():
		return &model.MalformedRecordError{Index: i, Field: "timestamp", Value: "zero time"}
	case r.ExtractionConfidence < 0 || r.ExtractionConfidence > 1:
		return &model.MalformedRecordError{
			Index: i,
			Field: "extraction_confidence",
			Value: fmt.Sprintf("%v", r.ExtractionConfidence),
		}
	}
	return nil
}
