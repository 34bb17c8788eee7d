package retriever

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minMentionRunes = 2
	minSingleRunes  = 3
)

// stopWords filters tokens that never denote entities on their own. The list
// leans toward question vocabulary since inputs are chat queries.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "nor": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {},
	"by": {}, "from": {}, "as": {}, "into": {}, "about": {}, "between": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"do": {}, "does": {}, "did": {}, "has": {}, "have": {}, "had": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "shall": {}, "should": {},
	"may": {}, "might": {}, "must": {},
	"who": {}, "whom": {}, "whose": {}, "what": {}, "which": {}, "where": {},
	"when": {}, "why": {}, "how": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "us": {}, "our": {}, "you": {},
	"your": {}, "he": {}, "him": {}, "his": {}, "she": {}, "her": {}, "it": {},
	"its": {}, "they": {}, "them": {}, "their": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "there": {},
	"not": {}, "no": {}, "so": {}, "if": {}, "then": {}, "than": {},
	"tell": {}, "show": {}, "give": {}, "list": {}, "explain": {}, "describe": {},
	"please": {}, "also": {}, "any": {}, "all": {}, "some": {}, "more": {},
}

type token struct {
	text string
	// boundary marks trailing punctuation in the source; a phrase never
	// extends past it.
	boundary bool
}

// ExtractMentions derives candidate entity mentions from a user query: runs
// of capitalized tokens are grouped into phrases (broken at punctuation), and
// when the query carries no capitalization signal, individual non-stopword
// tokens serve as fallback candidates. The result is ordered by first
// occurrence and deduplicated case-insensitively; empty or unusable input
// yields an empty slice, never an error.
func ExtractMentions(query string) []string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	var mentions []string
	seen := map[string]struct{}{}
	add := func(candidate string) {
		key := strings.ToLower(candidate)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		mentions = append(mentions, candidate)
	}

	for i := 0; i < len(tokens); {
		if !isCapitalized(tokens[i].text) || isStopWord(tokens[i].text) {
			i++
			continue
		}
		j := i
		for j < len(tokens) && isCapitalized(tokens[j].text) && !isStopWord(tokens[j].text) {
			j++
			if tokens[j-1].boundary {
				break
			}
		}
		words := make([]string, 0, j-i)
		for _, tok := range tokens[i:j] {
			words = append(words, tok.text)
		}
		phrase := strings.Join(words, " ")
		if utf8.RuneCountInString(phrase) >= minMentionRunes {
			add(phrase)
		}
		i = j
	}

	// No capitalized phrases: fall back to individual content tokens so
	// lowercase queries still reach the matcher.
	if len(mentions) == 0 {
		for _, tok := range tokens {
			if isStopWord(tok.text) {
				continue
			}
			if utf8.RuneCountInString(tok.text) >= minSingleRunes {
				add(tok.text)
			}
		}
	}

	return mentions
}

// tokenize splits on whitespace and strips surrounding punctuation, keeping
// inner characters (hyphens, apostrophes) intact and remembering where
// trailing punctuation ended a phrase.
func tokenize(text string) []token {
	fields := strings.Fields(text)
	tokens := make([]token, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimFunc(field, isPunct)
		if trimmed == "" {
			continue
		}
		tokens = append(tokens, token{
			text:     trimmed,
			boundary: strings.TrimRightFunc(field, isPunct) != field,
		})
	}
	return tokens
}

func isPunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isCapitalized(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return unicode.IsUpper(r)
}

func isStopWord(text string) bool {
	_, ok := stopWords[strings.ToLower(text)]
	return ok
}
