// Package ai implements reply generation through the Anthropic Messages
// API.
package ai

import (
	"context"
	"fmt"
	"strings"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var tonePrompts = map[domain.AutoReplyMode]string{
	domain.AutoReplyFriendly:     "You are a friendly and casual chat assistant. Be warm and conversational. Keep responses brief (1-3 sentences).",
	domain.AutoReplyProfessional: "You are a professional assistant. Be formal, clear, and concise. Avoid emojis and slang. Keep responses brief (1-3 sentences).",
	domain.AutoReplyFunny:        "You are a witty and humorous assistant. Make clever jokes when appropriate. Be lighthearted. Keep responses brief (1-3 sentences).",
}

type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Generator adapts the Anthropic client to the ResponseGenerator
// contract.
type Generator struct {
	client anthropic.Client
	opts   Options
}

func NewGenerator(optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:     anthropic.ModelClaude3_5HaikuLatest,
		MaxTokens: 256,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	return &Generator{client: anthropic.NewClient(clientOpts...), opts: opts}
}

// Generate produces a short reply on behalf of an away user, using the
// recent conversation history as context.
func (g *Generator) Generate(ctx context.Context, req contract.GenerateRequest) (string, error) {
	system := buildSystem(req)
	prompt := buildPrompt(req)

	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.opts.Model,
		MaxTokens: g.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrGenerationFailed, err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			text := strings.TrimSpace(block.AsText().Text)
			if text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: empty completion", errors.ErrGenerationFailed)
}

func buildSystem(req contract.GenerateRequest) string {
	tone, ok := tonePrompts[req.Mode]
	if !ok {
		tone = tonePrompts[domain.AutoReplyFriendly]
	}
	return fmt.Sprintf(
		"%s\n\nYou are replying on behalf of %s. They are currently away but have auto-reply enabled.",
		tone, req.OnBehalfOf.Name)
}

func buildPrompt(req contract.GenerateRequest) string {
	var history strings.Builder
	for _, entry := range req.History {
		fmt.Fprintf(&history, "%s: %s\n", entry.SenderName, entry.Text)
	}
	return fmt.Sprintf(
		"Conversation history:\n%s\nGenerate a brief, contextual auto-reply message:",
		history.String())
}
