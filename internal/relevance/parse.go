// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Result is one paper's parsed relevance judgment.
type Result struct {
	Score       float64
	Explanation string
}

// fallbackMarkers identify explanations produced by the degradation
// paths rather than the model. Matching is case-insensitive.
var fallbackMarkers = []string{
	"error:",
	"not scored",
	"unable to parse",
	"unable to score",
	"error during scoring",
}

// IsFallbackExplanation reports whether an explanation came from a
// degradation path instead of the model. Display layers use this to
// suppress explanation text while still showing the score.
func IsFallbackExplanation(explanation string) bool {
	folded := strings.ToLower(explanation)
	for _, marker := range fallbackMarkers {
		if strings.Contains(folded, marker) {
			return true
		}
	}
	return false
}

// scoredItem mirrors the JSON shape the model is asked to produce.
type scoredItem struct {
	Paper       int     `json:"paper"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// parseScores extracts one Result per paper from a model response. The
// strategies run in order: fenced or bare JSON array, individual JSON
// objects, then line-based regex patterns. Position i of the response
// maps to paper i regardless of any indices the model emitted. Papers
// the response never covers get score 50 with a fallback explanation.
func parseScores(response string, count int) []Result {
	cleaned := stripFence(response)

	results := parseJSONArray(cleaned, count)
	if results == nil {
		results = parseJSONObjects(cleaned, count)
	}
	if results == nil {
		results = parsePatterns(cleaned, count)
	}

	out := make([]Result, count)
	for i := range out {
		if results != nil && i < len(results) && results[i] != nil {
			out[i] = *results[i]
			continue
		}
		out[i] = Result{Score: 50, Explanation: "Not scored in response, unable to parse"}
	}
	return out
}

// stripFence removes a surrounding markdown code fence, with or without
// a language tag.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		// A short first line is a language tag, not content.
		if len(first) <= 10 && !strings.ContainsAny(first, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// parseJSONArray extracts the first [...] span and decodes it as an
// array of score objects. Returns nil when no array parses.
func parseJSONArray(s string, count int) []*Result {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil
	}

	var items []scoredItem
	if err := json.Unmarshal([]byte(s[start:end+1]), &items); err != nil {
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	results := make([]*Result, count)
	for i, item := range items {
		if i >= count {
			break
		}
		results[i] = &Result{Score: clampScore(item.Score), Explanation: item.Explanation}
	}
	return results
}

// parseJSONObjects scans the text for standalone {...} objects and
// assigns them positionally. Handles models that emit one object per
// line instead of an array.
func parseJSONObjects(s string, count int) []*Result {
	results := make([]*Result, count)
	found := 0

	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				var item scoredItem
				if err := json.Unmarshal([]byte(s[start:i+1]), &item); err == nil && found < count {
					results[found] = &Result{Score: clampScore(item.Score), Explanation: item.Explanation}
					found++
				}
				start = -1
			}
		}
	}

	if found == 0 {
		return nil
	}
	return results
}

// scorePatterns match free-text score lines such as "Paper 1: 85/100",
// "1. Score: 85", or "1) ... 85/100".
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)paper\s*(\d+)\s*[:\-]\s*(\d+)(?:\s*/\s*100)?`),
	regexp.MustCompile(`(?i)(\d+)[.)]\s*score\s*[:\-]?\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)[.)].*?(\d+)\s*/\s*100`),
}

func parsePatterns(s string, count int) []*Result {
	results := make([]*Result, count)
	found := 0

	for _, pattern := range scorePatterns {
		for _, m := range pattern.FindAllStringSubmatch(s, -1) {
			idx, err1 := strconv.Atoi(m[1])
			score, err2 := strconv.ParseFloat(m[2], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			// Prompts number papers from 1.
			pos := idx - 1
			if pos < 0 || pos >= count || results[pos] != nil {
				continue
			}
			results[pos] = &Result{Score: clampScore(score), Explanation: "Score extracted from response"}
			found++
		}
		if found > 0 {
			return results
		}
	}
	return nil
}

// clampScore bounds a score to [0, 100].
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
