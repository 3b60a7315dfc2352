package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

// GeminiComposer drafts review replies using Google's Gemini API.
type GeminiComposer struct {
	client *genai.Client
	model  string
	logger *logrus.Logger
}

// NewGeminiComposer creates a new Gemini-backed reply composer.
func NewGeminiComposer(apiKey, model string, logger *logrus.Logger) (ports.ReplyComposer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiComposer{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// ComposeReply drafts a suggested owner reply for a review. The draft is
// returned for the owner to edit; it is never posted upstream from here.
func (g *GeminiComposer) ComposeReply(ctx context.Context, review *gbp.Review, businessName, tone string) (string, error) {
	if review == nil {
		return "", fmt.Errorf("review is required")
	}
	if tone == "" {
		tone = "friendly and professional"
	}

	prompt := buildPrompt(review, businessName, tone)

	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.7),
		},
	)
	if err != nil {
		if g.logger != nil {
			g.logger.WithFields(logrus.Fields{"review": review.Name}).WithError(err).Error("GenAI draft failed")
		}
		return "", fmt.Errorf("failed to generate reply draft: %w", err)
	}

	draft := strings.TrimSpace(result.Text())
	if draft == "" {
		return "", fmt.Errorf("model returned an empty draft")
	}
	return draft, nil
}

func buildPrompt(review *gbp.Review, businessName, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You write owner replies to Google Business Profile reviews for %q.\n", businessName)
	fmt.Fprintf(&b, "Write a %s reply to the review below. Keep it under 80 words, thank the reviewer by first name if given, and do not offer discounts or make promises.\n\n", tone)
	if review.Reviewer.DisplayName != "" && !review.Reviewer.IsAnonymous {
		fmt.Fprintf(&b, "Reviewer: %s\n", review.Reviewer.DisplayName)
	}
	fmt.Fprintf(&b, "Rating: %d out of 5\n", review.StarRating.Value())
	if review.Comment != "" {
		fmt.Fprintf(&b, "Review: %s\n", review.Comment)
	} else {
		b.WriteString("Review: (rating only, no text)\n")
	}
	b.WriteString("\nReply with the draft text only, no preamble.")
	return b.String()
}
