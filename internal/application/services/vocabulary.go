package services

import (
	"regexp"
	"strings"
)

// Vocabulary holds the domain keyword lists the pipeline scores and filters
// against. Injected so tests can run with alternate vocabularies.
type Vocabulary struct {
	StrongKeywords []string
	WeakKeywords   []string
	FoodTerms      []string
	KnownCities    []string
}

// DefaultVocabulary returns the amala-spot vocabulary
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		StrongKeywords: []string{
			"amala", "abula", "amala joint", "amala spot",
		},
		WeakKeywords: []string{
			"buka", "bukka", "bukateria", "canteen", "local food",
			"swallow", "ewedu", "gbegiri", "yoruba food", "mama put",
		},
		FoodTerms: []string{
			"amala", "ewedu", "gbegiri", "abula", "ogunfe", "goat meat",
			"assorted", "ponmo", "saki", "panla", "gbure", "ila alasepo",
			"semo", "fufu", "eba", "pounded yam", "iyan",
		},
		KnownCities: []string{
			"Lagos", "Ibadan", "Abuja", "Abeokuta", "Oyo", "Osogbo",
			"Akure", "Ilorin", "Ile-Ife", "Ikeja", "Surulere", "Yaba",
		},
	}
}

// HasStrongKeyword reports whether text contains a strong domain keyword
func (v *Vocabulary) HasStrongKeyword(text string) bool {
	return containsAny(text, v.StrongKeywords)
}

// HasWeakKeyword reports whether text contains a weak domain keyword
func (v *Vocabulary) HasWeakKeyword(text string) bool {
	return containsAny(text, v.WeakKeywords)
}

// HasAnyKeyword reports whether text contains any domain keyword
func (v *Vocabulary) HasAnyKeyword(text string) bool {
	return v.HasStrongKeyword(text) || v.HasWeakKeyword(text)
}

// ExtractFoodTerms returns the deduplicated food terms present in text
func (v *Vocabulary) ExtractFoodTerms(text string) []string {
	lowered := strings.ToLower(text)
	seen := map[string]struct{}{}
	terms := []string{}
	for _, term := range v.FoodTerms {
		if _, dup := seen[term]; dup {
			continue
		}
		if strings.Contains(lowered, term) {
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}

// CityPattern builds a regex matching any known city name
func (v *Vocabulary) CityPattern() *regexp.Regexp {
	quoted := make([]string, 0, len(v.KnownCities))
	for _, city := range v.KnownCities {
		quoted = append(quoted, regexp.QuoteMeta(city))
	}
	return regexp.MustCompile(`(?i)[^.]*\b(` + strings.Join(quoted, "|") + `)\b[^.]*`)
}

func containsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
