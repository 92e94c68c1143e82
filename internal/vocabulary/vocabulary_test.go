package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor/internal/domain"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New([]domain.VocabularyTerm{
		{Term: "Diffusion", Weight: 2, Synonyms: []string{"spreading"}, Definition: "Spreading of particles."},
		{Term: "particle", Weight: 1.5},
		{Term: "carbon dioxide", Weight: 1.2},
		{Term: "gas"},
	})
	require.NoError(t, err)
	return ix
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "is", "diffusion"}, Tokenize("What is diffusion?"))
	assert.Equal(t, []string{"it's", "cold"}, Tokenize("It's cold!"))
	assert.Empty(t, Tokenize("123 ... !!"))
}

func TestContentTokens(t *testing.T) {
	assert.Equal(t, []string{"diffusion"}, ContentTokens("What is diffusion?"))
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"particles": "particle",
		"bodies":    "body",
		"boxes":     "box",
		"classes":   "class",
		"gas":       "gas",
		"nucleus":   "nucleus",
		"analysis":  "analysis",
		"Atoms":     "atom",
		"cell's":    "cell",
		"cells’s":   "cell",
		"gas's":     "gas",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Stem(in))
		})
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		terms []domain.VocabularyTerm
	}{
		{"same key", []domain.VocabularyTerm{{Term: "atom"}, {Term: "ATOM"}}},
		{"synonym is another key", []domain.VocabularyTerm{{Term: "atom"}, {Term: "particle", Synonyms: []string{"atom"}}}},
		{"shared synonym", []domain.VocabularyTerm{
			{Term: "liquid", Synonyms: []string{"fluid"}},
			{Term: "gas", Synonyms: []string{"fluid"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.terms)
			assert.ErrorIs(t, err, ErrDuplicateTerm)
		})
	}
}

func TestNew_EmptyKey(t *testing.T) {
	_, err := New([]domain.VocabularyTerm{{Term: "  "}})
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	ix := testIndex(t)

	term, ok := ix.Lookup("DIFFUSION")
	require.True(t, ok)
	assert.Equal(t, "diffusion", term.Term)

	term, ok = ix.Lookup("spreading")
	require.True(t, ok)
	assert.Equal(t, "diffusion", term.Term)

	term, ok = ix.Lookup("particles")
	require.True(t, ok)
	assert.Equal(t, "particle", term.Term)

	term, ok = ix.Lookup("diffusion's")
	require.True(t, ok)
	assert.Equal(t, "diffusion", term.Term)

	_, ok = ix.Lookup("quantum")
	assert.False(t, ok)
}

func TestWeight(t *testing.T) {
	ix := testIndex(t)
	assert.Equal(t, 2.0, ix.Weight("diffusion"))
	assert.Equal(t, 1.0, ix.Weight("gas"), "non-positive weight defaults to 1")
	assert.Equal(t, 0.0, ix.Weight("the"))
	assert.Equal(t, DefaultWeight, ix.Weight("quantum"))

	custom, err := New(nil, WithDefaultWeight(0.5))
	require.NoError(t, err)
	assert.Equal(t, 0.5, custom.Weight("quantum"))
}

func TestExpand(t *testing.T) {
	ix := testIndex(t)
	assert.Equal(t, []string{"diffusion", "spreading"}, ix.Expand("diffusion"))
	assert.Equal(t, []string{"spreading", "diffusion"}, ix.Expand("spreading"))
	assert.Equal(t, []string{"particles", "particle"}, ix.Expand("particles"))
	assert.Equal(t, []string{"quantum"}, ix.Expand("quantum"))
}

func TestIsKnownWord(t *testing.T) {
	ix := testIndex(t)
	assert.True(t, ix.IsKnownWord("diffusion"))
	assert.True(t, ix.IsKnownWord("the"))
	assert.True(t, ix.IsKnownWord("water"))
	assert.True(t, ix.IsKnownWord("walking"))
	assert.False(t, ix.IsKnownWord("xqzzv"))
}

func TestTermsIn(t *testing.T) {
	ix := testIndex(t)
	got := ix.TermsIn(Tokenize("Carbon dioxide particles and more particles drive diffusion"))
	assert.Equal(t, []string{"carbon dioxide", "particle", "diffusion"}, got)
}

func TestTopic(t *testing.T) {
	ix := testIndex(t)

	topic, known := ix.Topic("How do particles relate to diffusion?")
	assert.True(t, known)
	assert.Equal(t, "diffusion", topic)

	topic, known = ix.Topic("What is quantum entanglement?")
	assert.False(t, known)
	assert.Equal(t, "entanglement", topic)

	topic, _ = ix.Topic("what is it?")
	assert.Empty(t, topic)
}

func TestTerms_Sorted(t *testing.T) {
	ix := testIndex(t)
	terms := ix.Terms()
	require.Len(t, terms, 4)
	assert.Equal(t, "carbon dioxide", terms[0].Term)
	assert.Equal(t, "particle", terms[3].Term)
	assert.Equal(t, 4, ix.Len())
}

func TestDefault(t *testing.T) {
	ix := Default()
	assert.Greater(t, ix.Len(), 20)
	term, ok := ix.Lookup("vapour")
	require.True(t, ok)
	assert.Equal(t, "gas", term.Term)
	assert.NotEmpty(t, term.Definition)
}

func TestMergeTerms(t *testing.T) {
	base := []domain.VocabularyTerm{{Term: "atom", Weight: 1}, {Term: "gas", Weight: 1}}
	extra := []domain.VocabularyTerm{{Term: "Atom", Weight: 3}, {Term: "plasma", Weight: 2}}
	got := MergeTerms(base, extra)
	require.Len(t, got, 3)
	assert.Equal(t, 3.0, got[0].Weight)
	assert.Equal(t, "plasma", got[2].Term)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "vocab.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`terms:
  - term: plasma
    definition: A hot ionised gas.
    synonyms: [ionised gas]
    weight: 1.7
`), 0o644))

	tomlPath := filepath.Join(dir, "vocab.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`[[terms]]
term = "quark"
definition = "A fundamental particle."
weight = 1.9
`), 0o644))

	ix, err := LoadFile(yamlPath)
	require.NoError(t, err)
	term, ok := ix.Lookup("ionised gas")
	require.True(t, ok)
	assert.Equal(t, "plasma", term.Term)
	_, ok = ix.Lookup("diffusion")
	assert.True(t, ok, "built-in terms are kept")

	ix, err = LoadFile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 1.9, ix.Weight("quark"))

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "let's start", Normalize("  Let’s START!! "))
	assert.Equal(t, "", Normalize("... 42"))
}

func TestMatchPhrase(t *testing.T) {
	phrases := []string{"repeat", "say that again", "stop"}
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"repeat", "repeat", true},
		{"please repeat", "repeat", true},
		{"can you say that again please", "say that again", true},
		{"stop now thanks", "stop", true},
		{"stop the reaction", "", false},
		{"why do we repeat experiments", "", false},
		{"repeat it again then please", "", false},
		{"please", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := MatchPhrase(Normalize(tt.in), phrases, 2)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
