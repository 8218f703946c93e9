package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAssessPrompt(t *testing.T) {
	prompt := BuildAssessPrompt(AssessRequest{
		Claim:           "Smith influenced_by Jones",
		Domain:          "research",
		EvidenceContext: []string{"Smith attended Jones's 1870 lectures"},
		DimensionHints:  []string{"methodological_quality", "relevance"},
	})

	assert.Contains(t, prompt, "Smith influenced_by Jones")
	assert.Contains(t, prompt, "Domain: research")
	assert.Contains(t, prompt, "1. Smith attended Jones's 1870 lectures")
	assert.Contains(t, prompt, "methodological_quality, relevance")
	assert.Contains(t, prompt, "contradicts_consensus")
}

func TestBuildAssessPrompt_SanitizesEvidenceSpans(t *testing.T) {
	prompt := BuildAssessPrompt(AssessRequest{
		Claim:           "claim",
		EvidenceContext: []string{"<p>attended the <b>1870</b> lectures</p><script>alert(1)</script>"},
	})

	assert.Contains(t, prompt, "attended the 1870 lectures")
	assert.NotContains(t, prompt, "<p>")
	assert.NotContains(t, prompt, "alert(1)")
}

func TestParseAssessResponse(t *testing.T) {
	completion := "Here is my assessment:\n```json\n" + `{
  "score": 0.75,
  "rationale": "Multiple independent accounts agree.",
  "dimensions": {"relevance": 0.8, "coherence": 0.7},
  "extraordinary": false,
  "contradicts_consensus": true
}` + "\n```"

	resp, err := ParseAssessResponse(completion, "gpt-4o-mini", 321)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, resp.Score, 1e-9)
	assert.Equal(t, "Multiple independent accounts agree.", resp.Rationale)
	assert.InDelta(t, 0.8, resp.Dimensions["relevance"], 1e-9)
	assert.False(t, resp.Extraordinary)
	assert.True(t, resp.ContradictsConsensus)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, 321, resp.TokensUsed)
}

func TestParseAssessResponse_ScoreOutOfRange(t *testing.T) {
	_, err := ParseAssessResponse(`{"score": 1.4, "rationale": "x"}`, "m", 0)
	require.Error(t, err)
	assert.ErrorContains(t, err, "out of range")
}

func TestParseAssessResponse_NoJSON(t *testing.T) {
	_, err := ParseAssessResponse("I cannot assess this claim.", "m", 0)
	require.Error(t, err)
}

func TestParseFeaturesResponse(t *testing.T) {
	features, err := ParseFeaturesResponse(`{"quantitative": true, "count": 117, "hedged": true}`)
	require.NoError(t, err)

	assert.True(t, features.Quantitative)
	assert.Equal(t, 117, features.Count)
	assert.True(t, features.Hedged)
	assert.False(t, features.IndependentOrigination)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`prefix {"a":1} suffix`))
	assert.Empty(t, extractJSON("no braces here"))
	assert.Empty(t, extractJSON("} reversed {"))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "plain text stays", StripMarkup("  plain text stays "))
	assert.Equal(t, "visible text only", StripMarkup("<div>visible <em>text</em> only<style>.x{}</style></div>"))
	assert.NotContains(t, StripMarkup("<noscript>hidden</noscript>shown"), "hidden")
}
