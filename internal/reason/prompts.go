package reason

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const assessSystemPrompt = "You are a calibrated evidence assessor. You rate how well evidence supports a claim, never whether the claim is true. Respond with JSON only."

const featuresSystemPrompt = "You extract structured features from evidence text. Respond with JSON only."

// BuildAssessPrompt constructs the assessment prompt. Evidence spans are
// sanitized before inclusion: upstream extraction sometimes leaves residual
// markup in text spans.
func BuildAssessPrompt(req AssessRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Assess the confidence that the following claim is supported by its evidence.\n\nClaim: %s\n", req.Claim)
	if req.Domain != "" {
		fmt.Fprintf(&b, "Domain: %s\n", req.Domain)
	}

	b.WriteString("\nEvidence (chronological):\n")
	for i, span := range req.EvidenceContext {
		fmt.Fprintf(&b, "%d. %s\n", i+1, StripMarkup(span))
	}

	b.WriteString("\nChoose assessment dimensions appropriate to this domain and claim type.")
	if len(req.DimensionHints) > 0 {
		fmt.Fprintf(&b, " Suggested dimensions: %s.", strings.Join(req.DimensionHints, ", "))
	}

	b.WriteString(`

Respond with a single JSON object:
{
  "score": <confidence 0.0-1.0>,
  "rationale": "<2-3 sentence reasoning>",
  "dimensions": {"<dimension>": <score 0.0-1.0>, ...},
  "extraordinary": <true if the claim is extraordinary or consensus-displacing>,
  "contradicts_consensus": <true if the claim contradicts strong existing consensus>
}
Rate support quality, not truth. Penalize hedged, conflicting, or soft evidence.`)

	return b.String()
}

// BuildFeaturesPrompt constructs the feature extraction prompt
func BuildFeaturesPrompt(text string) string {
	return fmt.Sprintf(`Extract structured features from this evidence text:

%s

Respond with a single JSON object:
{
  "quantitative": <true if the text reports counts or percentages>,
  "count": <reported count, 0 if none>,
  "percentage": <reported percentage, 0 if none>,
  "hedged": <true if the statement is qualified ("reportedly", "may have")>,
  "independent_origination": <true if the text signals firsthand or original observation>
}`, StripMarkup(text))
}

// ParseAssessResponse extracts the JSON assessment from a completion
func ParseAssessResponse(completion, model string, tokens int) (*AssessResponse, error) {
	raw := extractJSON(completion)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Score                float64            `json:"score"`
		Rationale            string             `json:"rationale"`
		Dimensions           map[string]float64 `json:"dimensions"`
		Extraordinary        bool               `json:"extraordinary"`
		ContradictsConsensus bool               `json:"contradicts_consensus"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}
	if parsed.Score < 0 || parsed.Score > 1 {
		return nil, fmt.Errorf("assessment score %.3f out of range", parsed.Score)
	}

	return &AssessResponse{
		Score:                parsed.Score,
		Rationale:            strings.TrimSpace(parsed.Rationale),
		Dimensions:           parsed.Dimensions,
		Extraordinary:        parsed.Extraordinary,
		ContradictsConsensus: parsed.ContradictsConsensus,
		Model:                model,
		TokensUsed:           tokens,
	}, nil
}

// ParseFeaturesResponse extracts the JSON feature object from a completion
func ParseFeaturesResponse(completion string) (*EvidenceFeatures, error) {
	raw := extractJSON(completion)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var features EvidenceFeatures
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		return nil, fmt.Errorf("parse features: %w", err)
	}
	return &features, nil
}

// extractJSON finds the outermost JSON object in text (models sometimes
// wrap JSON in prose or code fences)
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// StripMarkup removes HTML tags from a text span, keeping visible text.
// Script, style and similar containers are dropped entirely.
func StripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}
