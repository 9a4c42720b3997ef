// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	slackapi "github.com/slack-go/slack"

	"github.com/pdiddy/paperbot/pkg/types"
)

// MessagePoster is the slice of the Slack API the client needs.
// Satisfied by *slackapi.Client.
type MessagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Client posts formatted paper messages to a fixed channel, splitting
// long messages under the Slack block limit.
type Client struct {
	api     MessagePoster
	channel string
	log     zerolog.Logger
}

// NewClient builds a Client over the Slack Web API.
func NewClient(botToken, channelID string, log zerolog.Logger) *Client {
	return &Client{
		api:     slackapi.New(botToken),
		channel: channelID,
		log:     log,
	}
}

// NewClientWithAPI builds a Client over an existing API surface. Used
// by tests.
func NewClientWithAPI(api MessagePoster, channelID string, log zerolog.Logger) *Client {
	return &Client{api: api, channel: channelID, log: log}
}

// PostDigest formats and posts the daily digest. Empty digests post a
// short notice instead of a paper list.
func (c *Client) PostDigest(ctx context.Context, papers []types.Paper) error {
	date := time.Now().Format("2006-01-02")
	if len(papers) == 0 {
		return c.postBlocks(ctx, []slackapi.Block{
			headerBlock("📚 Paper Digest - " + date),
			markdownSection("📭 No new papers today."),
		})
	}
	return c.postBlocks(ctx, FormatDigest(papers, date))
}

// PostSearchResults formats and posts on-demand search results.
func (c *Client) PostSearchResults(ctx context.Context, papers []types.Paper, query string) error {
	return c.postBlocks(ctx, FormatSearchResults(papers, query))
}

func (c *Client) postBlocks(ctx context.Context, blocks []slackapi.Block) error {
	for i, chunk := range SplitBlocks(blocks, MaxBlocksPerMessage) {
		_, _, err := c.api.PostMessageContext(ctx, c.channel,
			slackapi.MsgOptionBlocks(chunk...))
		if err != nil {
			return fmt.Errorf("posting message chunk %d: %w", i+1, err)
		}
		c.log.Debug().Int("chunk", i+1).Int("blocks", len(chunk)).Msg("posted message")
	}
	return nil
}
