// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search matches, filters, and ranks papers: a boolean query
// parser, an embedding-based semantic ranker, and the engine that
// combines them with attribute filters.
package search

import (
	"regexp"
	"strings"
)

// ParsedQuery is the structured form of a boolean query. Every input
// token lands in exactly one of the three sets, or is consumed as an
// operator keyword. Terms are case-folded; quoted phrases are single
// atomic terms.
type ParsedQuery struct {
	// Must terms all have to appear.
	Must []string

	// Should terms are enforced only when Must is empty: then at least
	// one has to appear.
	Should []string

	// MustNot terms may not appear.
	MustNot []string
}

// IsEmpty reports whether the query has no terms at all.
func (q ParsedQuery) IsEmpty() bool {
	return len(q.Must) == 0 && len(q.Should) == 0 && len(q.MustNot) == 0
}

var phrasePattern = regexp.MustCompile(`"([^"]+)"`)

// phraseMarker stands in for an extracted quoted phrase during
// tokenization. Uppercase so it cannot collide with a folded term.
const phraseMarker = "\x00PHRASE\x00"

// ParseQuery parses a query with AND/OR/NOT operators and quoted
// phrases. This is a heuristic left-to-right pass, not a grammar: there
// is no precedence and no parenthesized grouping.
//
// NOT negates the next term. OR opens a chain whose terms become
// should-terms; entering a chain retroactively moves the immediately
// preceding must-term into it, so "a OR b" makes neither term
// individually mandatory. AND closes any open chain. Bare terms default
// to must.
func ParseQuery(query string) ParsedQuery {
	var phrases []string
	for _, m := range phrasePattern.FindAllStringSubmatch(query, -1) {
		phrases = append(phrases, m[1])
	}
	stripped := phrasePattern.ReplaceAllString(query, " "+phraseMarker+" ")

	var (
		parsed    ParsedQuery
		orTerms   []string
		nextIsNot bool
		inOrChain bool
		phraseIdx int
	)

	addTerm := func(term string) {
		switch {
		case nextIsNot:
			parsed.MustNot = append(parsed.MustNot, term)
			nextIsNot = false
		case inOrChain:
			orTerms = append(orTerms, term)
		default:
			parsed.Must = append(parsed.Must, term)
		}
	}

	for _, token := range strings.Fields(stripped) {
		switch {
		case strings.EqualFold(token, "NOT"):
			nextIsNot = true
		case strings.EqualFold(token, "OR"):
			inOrChain = true
			// "a OR b": the term just emitted to must belongs to the
			// chain, not to the mandatory set.
			if len(parsed.Must) > 0 && len(orTerms) == 0 {
				last := len(parsed.Must) - 1
				orTerms = append(orTerms, parsed.Must[last])
				parsed.Must = parsed.Must[:last]
				if len(parsed.Must) == 0 {
					parsed.Must = nil
				}
			}
		case strings.EqualFold(token, "AND"):
			if len(orTerms) > 0 {
				parsed.Should = append(parsed.Should, orTerms...)
				orTerms = nil
			}
			inOrChain = false
		case token == phraseMarker:
			if phraseIdx < len(phrases) {
				addTerm(strings.ToLower(phrases[phraseIdx]))
				phraseIdx++
			}
		default:
			addTerm(strings.ToLower(token))
		}
	}

	if len(orTerms) > 0 {
		parsed.Should = append(parsed.Should, orTerms...)
	}
	return parsed
}

// Matches reports whether text satisfies the query. The checks run in
// order: any must_not term present fails; any must term absent fails;
// when must is empty and should is non-empty, at least one should term
// has to be present. An empty query matches everything.
func (q ParsedQuery) Matches(text string) bool {
	folded := strings.ToLower(text)

	for _, term := range q.MustNot {
		if strings.Contains(folded, term) {
			return false
		}
	}

	for _, term := range q.Must {
		if !strings.Contains(folded, term) {
			return false
		}
	}

	if len(q.Should) > 0 && len(q.Must) == 0 {
		for _, term := range q.Should {
			if strings.Contains(folded, term) {
				return true
			}
		}
		return false
	}

	return true
}
