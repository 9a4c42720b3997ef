// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"

	"github.com/pdiddy/paperbot/pkg/types"
)

// mockModel replays canned responses, one per call.
type mockModel struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *mockModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	idx := m.calls
	m.calls++

	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}

	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	response := ""
	if idx < len(m.responses) {
		response = m.responses[idx]
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: response}},
	}, nil
}

func scorerPapers(n int) []types.Paper {
	papers := make([]types.Paper, n)
	for i := range papers {
		papers[i] = types.Paper{
			Title:    fmt.Sprintf("Paper %d", i+1),
			Abstract: "an abstract",
			Journal:  "Nature",
		}
	}
	return papers
}

func TestScorePapers(t *testing.T) {
	model := &mockModel{responses: []string{
		`[{"paper": 1, "score": 85, "explanation": "good"}, {"paper": 2, "score": 40, "explanation": "meh"}]`,
	}}
	scorer := NewScorer(model, "", 5, zerolog.Nop())

	scored := scorer.ScorePapers(context.Background(), scorerPapers(2))
	if len(scored) != 2 {
		t.Fatalf("len(scored) = %d, want 2", len(scored))
	}
	if scored[0].Score() != 85 || scored[0].RelevanceExplanation != "good" {
		t.Errorf("scored[0] = %v/%q, want 85/good", scored[0].Score(), scored[0].RelevanceExplanation)
	}
	if scored[1].Score() != 40 {
		t.Errorf("scored[1].Score = %v, want 40", scored[1].Score())
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
}

func TestScorePapersBatching(t *testing.T) {
	model := &mockModel{responses: []string{
		`[{"paper": 1, "score": 10, "explanation": "a"}, {"paper": 2, "score": 20, "explanation": "b"}]`,
		`[{"paper": 1, "score": 30, "explanation": "c"}]`,
	}}
	scorer := NewScorer(model, "", 2, zerolog.Nop())

	scored := scorer.ScorePapers(context.Background(), scorerPapers(3))
	if model.calls != 2 {
		t.Fatalf("model calls = %d, want 2", model.calls)
	}
	want := []float64{10, 20, 30}
	for i, w := range want {
		if scored[i].Score() != w {
			t.Errorf("scored[%d].Score = %v, want %v", i, scored[i].Score(), w)
		}
	}
}

func TestScorePapersBatchFailureIsolated(t *testing.T) {
	model := &mockModel{
		responses: []string{
			"",
			`[{"paper": 1, "score": 70, "explanation": "fine"}]`,
		},
		errs: []error{fmt.Errorf("rate limited"), nil},
	}
	scorer := NewScorer(model, "", 1, zerolog.Nop())

	scored := scorer.ScorePapers(context.Background(), scorerPapers(2))
	if scored[0].Score() != 50 {
		t.Errorf("scored[0].Score = %v, want degraded 50", scored[0].Score())
	}
	if !IsFallbackExplanation(scored[0].RelevanceExplanation) {
		t.Errorf("scored[0].Explanation = %q, want a fallback marker", scored[0].RelevanceExplanation)
	}
	if scored[1].Score() != 70 {
		t.Errorf("scored[1].Score = %v, want 70 from the healthy batch", scored[1].Score())
	}
}

func TestScorePapersDoesNotMutateInput(t *testing.T) {
	model := &mockModel{responses: []string{
		`[{"paper": 1, "score": 99, "explanation": "x"}]`,
	}}
	scorer := NewScorer(model, "", 5, zerolog.Nop())

	papers := scorerPapers(1)
	scorer.ScorePapers(context.Background(), papers)
	if papers[0].Scored() {
		t.Error("input slice should stay unscored")
	}
}

func TestScorePapersPromptContent(t *testing.T) {
	model := &mockModel{responses: []string{`[{"paper": 1, "score": 1, "explanation": "x"}]`}}
	scorer := NewScorer(model, "rate for oncology relevance", 5, zerolog.Nop())

	papers := []types.Paper{{
		Title:    "Tumor microenvironment atlas",
		Abstract: strings.Repeat("x", 600),
		Journal:  "Cell",
	}}
	scorer.ScorePapers(context.Background(), papers)

	joined := strings.Join(model.prompts, "\n")
	if !strings.Contains(joined, "rate for oncology relevance") {
		t.Error("prompt should carry the rubric")
	}
	if !strings.Contains(joined, "Tumor microenvironment atlas") {
		t.Error("prompt should carry the title")
	}
	if !strings.Contains(joined, strings.Repeat("x", 500)+"...") {
		t.Error("abstract should be truncated to 500 chars with ellipsis")
	}
}

func TestScorePaperSingle(t *testing.T) {
	model := &mockModel{responses: []string{`[{"paper": 1, "score": 88, "explanation": "relevant"}]`}}
	scorer := NewScorer(model, "", 5, zerolog.Nop())

	paper, err := scorer.ScorePaper(context.Background(), types.Paper{Title: "T", Abstract: "A"})
	if err != nil {
		t.Fatalf("ScorePaper: %v", err)
	}
	if paper.Score() != 88 || paper.RelevanceExplanation != "relevant" {
		t.Errorf("paper = %v/%q, want 88/relevant", paper.Score(), paper.RelevanceExplanation)
	}
}

func TestScorePaperError(t *testing.T) {
	model := &mockModel{errs: []error{fmt.Errorf("boom")}}
	scorer := NewScorer(model, "", 5, zerolog.Nop())

	paper, err := scorer.ScorePaper(context.Background(), types.Paper{Title: "T"})
	if err == nil {
		t.Fatal("want error")
	}
	if paper.Score() != 50 || !IsFallbackExplanation(paper.RelevanceExplanation) {
		t.Errorf("paper = %v/%q, want degraded 50 with fallback marker", paper.Score(), paper.RelevanceExplanation)
	}
}

func TestFilterPapers(t *testing.T) {
	model := &mockModel{responses: []string{
		`[{"paper": 1, "score": 30, "explanation": "a"},
		  {"paper": 2, "score": 90, "explanation": "b"},
		  {"paper": 3, "score": 60, "explanation": "c"}]`,
	}}
	scorer := NewScorer(model, "", 5, zerolog.Nop())

	kept := scorer.FilterPapers(context.Background(), scorerPapers(3), 50)
	if len(kept) != 2 {
		t.Fatalf("len(kept) = %d, want 2", len(kept))
	}
	if kept[0].Score() != 90 || kept[1].Score() != 60 {
		t.Errorf("scores = %v, %v, want descending 90, 60", kept[0].Score(), kept[1].Score())
	}
}

func TestFilterPapersThresholdInclusive(t *testing.T) {
	model := &mockModel{responses: []string{
		`[{"paper": 1, "score": 50, "explanation": "a"}]`,
	}}
	scorer := NewScorer(model, "", 5, zerolog.Nop())

	kept := scorer.FilterPapers(context.Background(), scorerPapers(1), 50)
	if len(kept) != 1 {
		t.Errorf("len(kept) = %d, want 1: threshold is inclusive", len(kept))
	}
}
