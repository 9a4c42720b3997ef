// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores papers against a research rubric with a
// language model and filters on the resulting scores.
package relevance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"

	"github.com/pdiddy/paperbot/pkg/types"
)

// DefaultRubric is the scoring instruction used when the configuration
// provides none.
const DefaultRubric = "You are a research assistant helping filter scientific papers.\n" +
	"Rate each paper's relevance from 0-100 and provide a brief explanation.\n" +
	"Consider: methodology novelty, dataset quality, and practical applications."

// DefaultBatchSize is the number of papers scored per model call.
const DefaultBatchSize = 5

// abstractPreviewLen bounds the abstract text included in prompts.
const abstractPreviewLen = 500

// singleAbstractLen bounds the abstract for single-paper scoring, where
// more context is affordable.
const singleAbstractLen = 1000

// ChatModel is the slice of the model API the scorer needs. Satisfied
// by any llms.Model.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Scorer rates papers with a chat model. The zero value is not usable;
// construct with NewScorer.
type Scorer struct {
	model     ChatModel
	rubric    string
	batchSize int
	log       zerolog.Logger
}

// NewScorer returns a Scorer over the given model. Empty rubric and
// non-positive batch size fall back to the defaults.
func NewScorer(model ChatModel, rubric string, batchSize int, log zerolog.Logger) *Scorer {
	if rubric == "" {
		rubric = DefaultRubric
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scorer{model: model, rubric: rubric, batchSize: batchSize, log: log}
}

// ScorePapers rates every paper and returns copies annotated with score
// and explanation, in input order. Papers are scored in sequential
// batches; a failed batch degrades to score 50 for its papers and never
// affects other batches.
func (s *Scorer) ScorePapers(ctx context.Context, papers []types.Paper) []types.Paper {
	if len(papers) == 0 {
		return nil
	}

	scored := make([]types.Paper, 0, len(papers))
	for start := 0; start < len(papers); start += s.batchSize {
		end := start + s.batchSize
		if end > len(papers) {
			end = len(papers)
		}
		scored = append(scored, s.scoreBatch(ctx, papers[start:end])...)
	}
	return scored
}

func (s *Scorer) scoreBatch(ctx context.Context, batch []types.Paper) []types.Paper {
	response, err := s.generate(ctx, batchPrompt(batch))
	if err != nil {
		s.log.Warn().Err(err).Int("batch_size", len(batch)).Msg("scoring batch failed")
		out := make([]types.Paper, len(batch))
		for i, p := range batch {
			out[i] = p
			out[i].SetScore(50, fmt.Sprintf("Error: %v", err))
		}
		return out
	}

	results := parseScores(response, len(batch))
	out := make([]types.Paper, len(batch))
	for i, p := range batch {
		out[i] = p
		out[i].SetScore(results[i].Score, results[i].Explanation)
	}
	return out
}

// ScorePaper rates a single paper with a longer abstract excerpt and
// the first authors included.
func (s *Scorer) ScorePaper(ctx context.Context, paper types.Paper) (types.Paper, error) {
	response, err := s.generate(ctx, singlePrompt(paper))
	if err != nil {
		paper.SetScore(50, fmt.Sprintf("Error during scoring: %v", err))
		return paper, fmt.Errorf("scoring paper: %w", err)
	}

	results := parseScores(response, 1)
	paper.SetScore(results[0].Score, results[0].Explanation)
	return paper, nil
}

// FilterPapers scores papers and keeps those at or above minScore,
// sorted by descending score. Score ties keep input order.
func (s *Scorer) FilterPapers(ctx context.Context, papers []types.Paper, minScore float64) []types.Paper {
	scored := s.ScorePapers(ctx, papers)

	kept := make([]types.Paper, 0, len(scored))
	for _, p := range scored {
		if p.Score() >= minScore {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score() > kept[j].Score()
	})
	return kept
}

func (s *Scorer) generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(s.rubric)}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(prompt)}},
	}

	resp, err := s.model.GenerateContent(ctx, messages,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(1000),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func batchPrompt(batch []types.Paper) string {
	var b strings.Builder
	b.WriteString("Rate the relevance of each paper below.\n")
	b.WriteString("Respond with a JSON array, one object per paper:\n")
	b.WriteString(`[{"paper": 1, "score": 85, "explanation": "..."}]` + "\n\n")

	for i, p := range batch {
		fmt.Fprintf(&b, "Paper %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
		if p.Journal != "" {
			fmt.Fprintf(&b, "Journal: %s\n", p.Journal)
		}
		fmt.Fprintf(&b, "Abstract: %s\n\n", truncate(p.Abstract, abstractPreviewLen))
	}
	return b.String()
}

func singlePrompt(p types.Paper) string {
	var b strings.Builder
	b.WriteString("Rate the relevance of this paper.\n")
	b.WriteString("Respond with a JSON array containing one object:\n")
	b.WriteString(`[{"paper": 1, "score": 85, "explanation": "..."}]` + "\n\n")

	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if len(p.Authors) > 0 {
		authors := p.Authors
		if len(authors) > 5 {
			authors = authors[:5]
		}
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(authors, ", "))
	}
	if p.Journal != "" {
		fmt.Fprintf(&b, "Journal: %s\n", p.Journal)
	}
	fmt.Fprintf(&b, "Abstract: %s\n", truncate(p.Abstract, singleAbstractLen))
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
