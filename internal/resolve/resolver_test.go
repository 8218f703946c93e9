package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkoval/credence/internal/model"
)

func newTestResolver() *Resolver {
	return NewResolver(model.ResolverConfig{}, nil)
}

func TestResolve_ExactDuplicatesMerge(t *testing.T) {
	r := newTestResolver()

	clusters, assignment := r.Resolve([]Mention{
		{Text: "John Smith"},
		{Text: "John Smith"},
	})

	require.Len(t, clusters, 1)
	assert.Equal(t, "John Smith", clusters[0].Canonical)
	assert.Equal(t, clusters[0].ID, assignment["John Smith"])
}

func TestResolve_InitialsMerge(t *testing.T) {
	r := newTestResolver()

	clusters, assignment := r.Resolve([]Mention{
		{Text: "John Smith"},
		{Text: "J. Smith"},
	})

	require.Len(t, clusters, 1)
	assert.Equal(t, assignment["John Smith"], assignment["J. Smith"])
	assert.Contains(t, clusters[0].Variants, "J. Smith")
	assert.False(t, clusters[0].NeedsReview)
}

func TestResolve_HonorificsStripped(t *testing.T) {
	r := newTestResolver()

	clusters, _ := r.Resolve([]Mention{
		{Text: "Dr. John Smith"},
		{Text: "John Smith"},
	})

	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Variants, 2)
}

func TestResolve_DistinctNamesStaySeparate(t *testing.T) {
	r := newTestResolver()

	clusters, assignment := r.Resolve([]Mention{
		{Text: "John Smith"},
		{Text: "Maria Garcia"},
	})

	require.Len(t, clusters, 2)
	assert.NotEqual(t, assignment["John Smith"], assignment["Maria Garcia"])
}

func TestResolve_AmbiguousSurnameBecomesSingletons(t *testing.T) {
	r := newTestResolver()

	// Same surname, incompatible given names, no shared context: both
	// clusters must be flagged for human disambiguation, never merged.
	clusters, assignment := r.Resolve([]Mention{
		{Text: "John Smith", Context: "lectured on thermodynamics in Vienna"},
		{Text: "Jane Smith", Context: "published field notes from the Amazon expedition"},
	})

	require.Len(t, clusters, 2)
	assert.NotEqual(t, assignment["John Smith"], assignment["Jane Smith"])
	assert.True(t, clusters[0].NeedsReview)
	assert.True(t, clusters[1].NeedsReview)
}

func TestResolve_SurnameConflictWithCorroboratingContext(t *testing.T) {
	r := newTestResolver()

	// Incompatible given-name surface forms can still be the same person
	// (nicknames); strong context overlap is the tiebreaker.
	_, assignment := r.Resolve([]Mention{
		{Text: "Bill Smith", Context: "quantum computing laboratory director stanford"},
		{Text: "William Smith", Context: "quantum computing laboratory stanford appointment"},
	})

	assert.Equal(t, assignment["Bill Smith"], assignment["William Smith"])
}

func TestResolve_ConfidenceTracksWeakestMerge(t *testing.T) {
	r := newTestResolver()

	clusters, _ := r.Resolve([]Mention{
		{Text: "John Smith"},
		{Text: "John Smith"},
	})
	require.Len(t, clusters, 1)
	assert.InDelta(t, 1.0, clusters[0].Confidence, 1e-9)
}

func TestResolve_ClustersAppendOnlyAcrossCalls(t *testing.T) {
	r := newTestResolver()

	first, _ := r.Resolve([]Mention{{Text: "John Smith"}})
	require.Len(t, first, 1)

	second, _ := r.Resolve([]Mention{{Text: "J. Smith"}, {Text: "Maria Garcia"}})
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Contains(t, second[0].Variants, "J. Smith")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, []string{"john", "smith"}, normalizeName("Dr. John Smith"))
	assert.Equal(t, []string{"j", "smith"}, normalizeName("J, Smith"))
	assert.Empty(t, normalizeName("  Prof.  "))
}

func TestTokensMatch(t *testing.T) {
	assert.True(t, tokensMatch("john", "john"))
	assert.True(t, tokensMatch("j.", "john"))
	assert.True(t, tokensMatch("john", "j"))
	assert.False(t, tokensMatch("john", "jane"))
}

func TestNameSimilarity(t *testing.T) {
	full := []string{"john", "smith"}
	initials := []string{"j.", "smith"}
	other := []string{"jane", "smith"}

	assert.InDelta(t, 1.0, nameSimilarity(full, initials), 1e-9)
	assert.InDelta(t, 0.5, nameSimilarity(full, other), 1e-9)
	assert.Zero(t, nameSimilarity(nil, full))
}

func TestContextOverlap(t *testing.T) {
	assert.Zero(t, contextOverlap("", "quantum research"))
	assert.Greater(t, contextOverlap("quantum computing research", "research on quantum systems"), 0.0)
	// Short tokens are ignored as stop-like words
	assert.Zero(t, contextOverlap("a an the of", "a an the of"))
}
