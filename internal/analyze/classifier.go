package analyze

import (
	"context"
	"strings"

	"tweetvault/internal/config"
)

// KeywordClassifier identifies the supported token a text discusses using
// cashtags, symbols, and chain names. Deterministic and offline; the
// earliest mention in the text wins, cashtags with higher confidence than
// bare names.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

type tokenMatch struct {
	token      string
	position   int
	confidence float64
}

func (c *KeywordClassifier) Classify(_ context.Context, text string) (string, float64, error) {
	upper := strings.ToUpper(text)

	best := tokenMatch{position: -1}
	consider := func(m tokenMatch) {
		if m.position < 0 {
			return
		}
		if best.position < 0 || m.position < best.position ||
			(m.position == best.position && m.confidence > best.confidence) {
			best = m
		}
	}

	for symbol, meta := range config.SupportedTokens {
		consider(tokenMatch{symbol, indexOfWord(upper, "$"+symbol), 0.9})
		consider(tokenMatch{symbol, indexOfWord(upper, symbol), 0.7})
		chain := strings.ToUpper(meta.Chain)
		if chain != "" && chain != "MULTI-CHAIN" {
			consider(tokenMatch{symbol, strings.Index(upper, chain), 0.6})
		}
	}

	if best.position < 0 {
		return "", 0, nil
	}
	return best.token, best.confidence, nil
}

// indexOfWord finds needle as a whole word in haystack, -1 when absent.
func indexOfWord(haystack, needle string) int {
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return -1
		}
		idx += offset

		beforeOK := idx == 0 || isBoundary(haystack[idx-1])
		afterIdx := idx + len(needle)
		afterOK := afterIdx >= len(haystack) || isBoundary(haystack[afterIdx])
		if beforeOK && afterOK {
			return idx
		}
		offset = idx + 1
	}
}

func isBoundary(b byte) bool {
	return !(b >= 'A' && b <= 'Z') && !(b >= '0' && b <= '9') && b != '$'
}
