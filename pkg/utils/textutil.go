package utils

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	phoneCleanPattern = regexp.MustCompile(`[^\d+]`)

	spamPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)click here`),
		regexp.MustCompile(`(?i)free money`),
		regexp.MustCompile(`(?i)lottery`),
		regexp.MustCompile(`(?i)winner`),
		regexp.MustCompile(`(?i)congratulations you`),
		regexp.MustCompile(`(?i)limited time offer`),
		regexp.MustCompile(`(?i)act now`),
	}
)

// NormalizeText strips HTML-like tags and collapses whitespace
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	cleaned := htmlTagPattern.ReplaceAllString(s, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// NormalizePhone canonicalizes a Nigerian phone number to international form.
// Unrecognized shapes are returned cleaned but unrewritten.
func NormalizePhone(s string) string {
	cleaned := phoneCleanPattern.ReplaceAllString(s, "")
	if cleaned == "" {
		return ""
	}

	// National trunk prefix: 0XXXXXXXXXX -> +234XXXXXXXXXX
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "0") {
		return "+234" + cleaned[1:]
	}

	// Bare country code: 234XXXXXXXXXX -> +234XXXXXXXXXX
	if len(cleaned) == 13 && strings.HasPrefix(cleaned, "234") {
		return "+" + cleaned
	}

	return cleaned
}

// Levenshtein computes the edit distance between two strings
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// IsSimilarName reports whether two names refer to the same place.
// Exact matches and containment count as similar; otherwise the edit
// distance must be within 30% of the shorter name's length.
func IsSimilarName(a, b string) bool {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))

	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	shorter := len([]rune(na))
	if l := len([]rune(nb)); l < shorter {
		shorter = l
	}

	return float64(Levenshtein(na, nb)) <= 0.3*float64(shorter)
}

// SimilarityRatio returns a [0,1] similarity between two names, where 1 is
// an exact match. Symmetric in its arguments.
func SimilarityRatio(a, b string) float64 {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))

	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}

	longer := len([]rune(na))
	if l := len([]rune(nb)); l > longer {
		longer = l
	}

	return 1 - float64(Levenshtein(na, nb))/float64(longer)
}

// IsSpam reports whether the text matches a known spam phrase
func IsSpam(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range spamPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
