// Package vocabulary holds the curated domain vocabulary used for lexical
// scoring. An Index is built once and is read-only afterwards, so it can be
// shared between sessions without locking.
package vocabulary

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tutor/internal/domain"
)

// DefaultWeight is the weight of words that are not vocabulary terms.
const DefaultWeight = 0.2

var ErrDuplicateTerm = errors.New("duplicate vocabulary term")

// Index maps terms and their synonyms to VocabularyTerm entries.
type Index struct {
	terms         map[string]domain.VocabularyTerm
	aliases       map[string]string
	defaultWeight float64
}

// Option configures an Index.
type Option func(*Index)

// WithDefaultWeight sets the weight returned for unknown words.
func WithDefaultWeight(w float64) Option {
	return func(ix *Index) {
		if w >= 0 {
			ix.defaultWeight = w
		}
	}
}

// New builds an index. Term keys are case-insensitive and must be unique;
// a synonym may not collide with another term's key or synonyms.
func New(terms []domain.VocabularyTerm, opts ...Option) (*Index, error) {
	ix := &Index{
		terms:         make(map[string]domain.VocabularyTerm, len(terms)),
		aliases:       make(map[string]string, len(terms)*3),
		defaultWeight: DefaultWeight,
	}
	for _, o := range opts {
		o(ix)
	}
	for _, t := range terms {
		key := normalizeKey(t.Term)
		if key == "" {
			return nil, errors.New("vocabulary term with empty key")
		}
		if _, dup := ix.terms[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTerm, key)
		}
		if owner, taken := ix.aliases[key]; taken && owner != key {
			return nil, fmt.Errorf("%w: %q is already a synonym of %q", ErrDuplicateTerm, key, owner)
		}
		if t.Weight <= 0 {
			t.Weight = 1
		}
		t.Term = key
		syns := make([]string, 0, len(t.Synonyms))
		for _, s := range t.Synonyms {
			if s = normalizeKey(s); s != "" && s != key {
				syns = append(syns, s)
			}
		}
		t.Synonyms = syns
		ix.terms[key] = t
		ix.aliases[key] = key
	}
	// Synonyms are registered after all keys so collisions are detected
	// regardless of input order.
	for key, t := range ix.terms {
		for _, s := range t.Synonyms {
			if owner, taken := ix.aliases[s]; taken && owner != key {
				return nil, fmt.Errorf("%w: synonym %q of %q collides with %q", ErrDuplicateTerm, s, key, owner)
			}
			ix.aliases[s] = key
		}
	}
	for alias, key := range snapshot(ix.aliases) {
		if stem := Stem(alias); stem != alias {
			if _, taken := ix.aliases[stem]; !taken {
				ix.aliases[stem] = key
			}
		}
	}
	return ix, nil
}

func snapshot(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Len returns the number of terms.
func (ix *Index) Len() int { return len(ix.terms) }

// Terms returns all terms sorted by key.
func (ix *Index) Terms() []domain.VocabularyTerm {
	out := make([]domain.VocabularyTerm, 0, len(ix.terms))
	for _, t := range ix.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

// Canonical returns the term key that word (a key, synonym or plural form)
// resolves to.
func (ix *Index) Canonical(word string) (string, bool) {
	w := normalizeKey(word)
	if key, ok := ix.aliases[w]; ok {
		return key, true
	}
	if key, ok := ix.aliases[Stem(w)]; ok {
		return key, true
	}
	return "", false
}

// Lookup returns the vocabulary entry for term.
func (ix *Index) Lookup(term string) (domain.VocabularyTerm, bool) {
	key, ok := ix.Canonical(term)
	if !ok {
		return domain.VocabularyTerm{}, false
	}
	return ix.terms[key], true
}

// Weight returns the relevance weight of a word: zero for stopwords, the
// term weight for vocabulary terms and a low default otherwise.
func (ix *Index) Weight(term string) float64 {
	if IsStopword(term) {
		return 0
	}
	if t, ok := ix.Lookup(term); ok {
		return t.Weight
	}
	return ix.defaultWeight
}

// DefaultWeight returns the weight given to unknown words.
func (ix *Index) DefaultWeight() float64 { return ix.defaultWeight }

// Expand returns token followed by its canonical term and synonyms.
func (ix *Index) Expand(token string) []string {
	tok := normalizeKey(token)
	out := []string{tok}
	t, ok := ix.Lookup(tok)
	if !ok {
		return out
	}
	seen := map[string]struct{}{tok: {}}
	for _, s := range append([]string{t.Term}, t.Synonyms...) {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// IsKnownWord reports whether word is a vocabulary term, a stopword or a
// common English word.
func (ix *Index) IsKnownWord(word string) bool {
	if IsStopword(word) || IsCommonWord(word) {
		return true
	}
	_, ok := ix.Canonical(word)
	return ok
}

// TermsIn returns the canonical keys of vocabulary terms found in tokens,
// checking two-word phrases before single words, in order of appearance.
func (ix *Index) TermsIn(tokens []string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(k string) {
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if key, ok := ix.Canonical(tokens[i] + " " + tokens[i+1]); ok {
				add(key)
				i++
				continue
			}
		}
		if IsStopword(tokens[i]) {
			continue
		}
		if key, ok := ix.Canonical(tokens[i]); ok {
			add(key)
		}
	}
	return out
}

// Topic returns the most relevant subject of text. The boolean reports
// whether the topic is a vocabulary term; otherwise the last content word
// is returned.
func (ix *Index) Topic(text string) (string, bool) {
	tokens := Tokenize(text)
	best, bestWeight := "", 0.0
	for _, key := range ix.TermsIn(tokens) {
		if w := ix.terms[key].Weight; w > bestWeight {
			best, bestWeight = key, w
		}
	}
	if best != "" {
		return best, true
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if !IsStopword(tokens[i]) && !isPronoun(tokens[i]) {
			return tokens[i], false
		}
	}
	return "", false
}

// MergeTerms returns base with entries of extra added; an entry of extra
// replaces the base entry with the same key.
func MergeTerms(base, extra []domain.VocabularyTerm) []domain.VocabularyTerm {
	pos := make(map[string]int, len(base))
	out := make([]domain.VocabularyTerm, 0, len(base)+len(extra))
	for _, t := range base {
		pos[normalizeKey(t.Term)] = len(out)
		out = append(out, t)
	}
	for _, t := range extra {
		if i, ok := pos[normalizeKey(t.Term)]; ok {
			out[i] = t
			continue
		}
		pos[normalizeKey(t.Term)] = len(out)
		out = append(out, t)
	}
	return out
}

var pronouns = toSet("it", "its", "this", "that", "they", "them", "their", "these", "those", "he", "she", "him", "her")

func isPronoun(word string) bool {
	_, ok := pronouns[strings.ToLower(word)]
	return ok
}

// IsPronoun reports whether word is a referring pronoun.
func IsPronoun(word string) bool { return isPronoun(word) }
