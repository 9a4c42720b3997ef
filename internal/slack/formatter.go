// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slack formats papers as Block Kit messages and posts them.
package slack

import (
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/pdiddy/paperbot/internal/journal"
	"github.com/pdiddy/paperbot/internal/relevance"
	"github.com/pdiddy/paperbot/pkg/types"
)

// MaxBlocksPerMessage is the Slack API limit on blocks in one message.
const MaxBlocksPerMessage = 50

// abstractPreviewLen bounds the abstract text shown per paper.
const abstractPreviewLen = 500

// digestPapersPerTier bounds how many papers each tier section shows.
const digestPapersPerTier = 5

// FormatOptions controls per-paper block layout.
type FormatOptions struct {
	ShowAbstract  bool
	ShowRelevance bool
}

// FormatPaper renders one paper as Slack blocks: linked title, a
// context line with authors and journal, then optional relevance and
// abstract sections, closed by a divider. Fallback relevance
// explanations are suppressed; the score still shows.
func FormatPaper(p types.Paper, opts FormatOptions) []slackapi.Block {
	var blocks []slackapi.Block

	title := p.Title
	if p.URL != "" {
		title = fmt.Sprintf("<%s|%s>", p.URL, p.Title)
	}
	blocks = append(blocks, markdownSection("*"+title+"*"))

	info := journal.Classify(p.Journal)
	meta := fmt.Sprintf("👤 %s\n%s *%s*", authorLine(p.Authors), info.Emoji, p.Journal)
	if p.PublicationDate != "" {
		meta += " | 📅 " + p.PublicationDate
	}
	if p.Source != "" {
		meta += " | 🏷️ " + p.Source
	}
	blocks = append(blocks, slackapi.NewContextBlock("",
		slackapi.NewTextBlockObject(slackapi.MarkdownType, meta, false, false)))

	if opts.ShowRelevance && p.Scored() {
		score := p.Score()
		text := fmt.Sprintf("🎯 Relevance: %s %.0f/100", scoreBar(score, 10), score)
		if p.RelevanceExplanation != "" && !relevance.IsFallbackExplanation(p.RelevanceExplanation) {
			text += fmt.Sprintf("\n_%s_", p.RelevanceExplanation)
		}
		blocks = append(blocks, markdownSection(text))
	}

	if opts.ShowAbstract && p.Abstract != "" {
		preview := p.Abstract
		if len(preview) > abstractPreviewLen {
			preview = preview[:abstractPreviewLen] + "..."
		}
		blocks = append(blocks, markdownSection("📝 "+preview))
	}

	blocks = append(blocks, slackapi.NewDividerBlock())
	return blocks
}

// FormatPapers renders a titled list of papers, capped at maxPapers.
// An empty list renders a single "no papers" section.
func FormatPapers(papers []types.Paper, title string, maxPapers int, opts FormatOptions) []slackapi.Block {
	var blocks []slackapi.Block

	if title != "" {
		blocks = append(blocks, headerBlock(title))
	}

	if len(papers) == 0 {
		blocks = append(blocks, markdownSection("📭 No papers found matching your criteria."))
		return blocks
	}

	summary := fmt.Sprintf("Found *%d* papers", len(papers))
	if len(papers) > maxPapers {
		summary += fmt.Sprintf(" (showing top %d)", maxPapers)
	}
	blocks = append(blocks, markdownSection(summary), slackapi.NewDividerBlock())

	for i, p := range papers {
		if i >= maxPapers {
			break
		}
		blocks = append(blocks, FormatPaper(p, opts)...)
	}
	return blocks
}

// tierSections fixes the digest section order and headings.
var tierSections = []struct {
	tier    journal.Tier
	heading string
}{
	{journal.Tier1, "🏆 Top Tier Journals"},
	{journal.Tier2, "⭐ High-Impact Journals"},
	{journal.TierML, "🤖 ML/AI Journals"},
	{journal.TierPreprint, "📝 Preprints"},
	{journal.TierOther, "📄 Other Journals"},
}

// FormatDigest renders the daily digest: a dated header, a per-tier
// count summary, then compact paper entries grouped by journal tier.
func FormatDigest(papers []types.Paper, date string) []slackapi.Block {
	blocks := []slackapi.Block{headerBlock("📚 Paper Digest - " + date)}

	grouped := journal.Categorize(papers)

	var counts []string
	for _, section := range tierSections {
		if n := len(grouped[section.tier]); n > 0 {
			emoji := strings.SplitN(section.heading, " ", 2)[0]
			counts = append(counts, fmt.Sprintf("%s %s: %d", emoji, tierLabel(section.tier), n))
		}
	}
	if len(counts) > 0 {
		blocks = append(blocks, markdownSection(strings.Join(counts, " | ")))
	}
	blocks = append(blocks, slackapi.NewDividerBlock())

	for _, section := range tierSections {
		tierPapers := grouped[section.tier]
		if len(tierPapers) == 0 {
			continue
		}
		blocks = append(blocks, markdownSection("*"+section.heading+"*"))

		for i, p := range tierPapers {
			if i >= digestPapersPerTier {
				break
			}
			blocks = append(blocks, FormatPaper(p, FormatOptions{ShowRelevance: true})...)
		}
	}
	return blocks
}

// FormatSearchResults renders on-demand search results with abstracts.
func FormatSearchResults(papers []types.Paper, query string) []slackapi.Block {
	return FormatPapers(papers, "🔍 Search Results: "+query, 10,
		FormatOptions{ShowAbstract: true, ShowRelevance: true})
}

// SplitBlocks chunks blocks into messages under the Slack block limit.
// Continuation messages get a short context header.
func SplitBlocks(blocks []slackapi.Block, limit int) [][]slackapi.Block {
	if limit <= 0 {
		limit = MaxBlocksPerMessage
	}
	if len(blocks) <= limit {
		return [][]slackapi.Block{blocks}
	}

	continuation := slackapi.NewContextBlock("",
		slackapi.NewTextBlockObject(slackapi.MarkdownType, "_(continued)_", false, false))

	var messages [][]slackapi.Block
	remaining := blocks
	first := true
	for len(remaining) > 0 {
		capacity := limit
		var chunk []slackapi.Block
		if !first {
			chunk = append(chunk, continuation)
			capacity--
		}
		n := capacity
		if n > len(remaining) {
			n = len(remaining)
		}
		chunk = append(chunk, remaining[:n]...)
		remaining = remaining[n:]
		messages = append(messages, chunk)
		first = false
	}
	return messages
}

func tierLabel(t journal.Tier) string {
	switch t {
	case journal.Tier1:
		return "Tier1"
	case journal.Tier2:
		return "Tier2"
	case journal.TierML:
		return "ML"
	case journal.TierPreprint:
		return "Preprints"
	default:
		return "Other"
	}
}

func authorLine(authors []string) string {
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s et al. (%d authors)", strings.Join(authors[:3], ", "), len(authors))
}

// scoreBar renders a 0-100 score as a fixed-width progress bar.
func scoreBar(score float64, length int) string {
	filled := int(score / 100 * float64(length))
	if filled < 0 {
		filled = 0
	}
	if filled > length {
		filled = length
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", length-filled)
}

func markdownSection(text string) *slackapi.SectionBlock {
	return slackapi.NewSectionBlock(
		slackapi.NewTextBlockObject(slackapi.MarkdownType, text, false, false), nil, nil)
}

func headerBlock(text string) *slackapi.HeaderBlock {
	return slackapi.NewHeaderBlock(
		slackapi.NewTextBlockObject(slackapi.PlainTextType, text, true, false))
}
