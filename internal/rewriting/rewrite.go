// Package rewriting turns raw medical information into a patient-facing blog post with an LLM.
package rewriting

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/medcontent/internal/ingestion"
	"github.com/jonathan/medcontent/internal/llm"
	"github.com/jonathan/medcontent/internal/prompts"
	"github.com/jonathan/medcontent/internal/types"
)

const promptFile = "rewriting.json"

// RewriteInput is everything the rewrite prompt is built from.
type RewriteInput struct {
	OriginalText string
	Profile      types.StyleProfile
	Config       types.GenerationConfig
}

// Generator rewrites text through an llm.Client.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a Generator over client.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Rewrite generates the blog post body for in. The result is plain text with markdown removed.
func (g *Generator) Rewrite(ctx context.Context, in RewriteInput) (string, error) {
	prompt, err := buildRewritingPrompt(in)
	if err != nil {
		return "", err
	}

	// Long-form writing uses the standard tier
	responseText, err := g.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", &APICallError{Message: "failed to generate blog post", Cause: err}
	}

	return parseRewriteResponse(responseText)
}

// buildRewritingPrompt fills the rewrite template from the profile and generation config.
func buildRewritingPrompt(in RewriteInput) (string, error) {
	cfg := in.Config.WithDefaults()

	guide, err := prompts.Get(promptFile, "framework-"+string(cfg.Framework))
	if err != nil {
		return "", fmt.Errorf("unknown framework %q: %w", cfg.Framework, err)
	}

	clinicSuffix := ""
	if in.Profile.ClinicName != "" {
		clinicSuffix = " (" + in.Profile.ClinicName + ")"
	}

	return prompts.Render(promptFile, "rewrite-blog-post", map[string]string{
		"Specialty":        orDefault(in.Profile.Specialty, "medical"),
		"ClinicSuffix":     clinicSuffix,
		"Location":         orDefault(in.Profile.Location, "Korea"),
		"Framework":        strings.ToUpper(string(cfg.Framework)),
		"FrameworkGuide":   guide,
		"TargetLength":     strconv.Itoa(cfg.TargetLength),
		"Audience":         cfg.Audience,
		"Perspective":      strings.ReplaceAll(string(cfg.Perspective), "_", " "),
		"Tone":             orDefault(in.Profile.Tone, "friendly and trustworthy"),
		"PersuasionLevel":  strconv.Itoa(cfg.PersuasionLevel),
		"SignaturePhrases": listOrNone(in.Profile.SignaturePhrases),
		"AvoidPhrases":     listOrNone(in.Profile.AvoidPhrases),
		"OriginalText":     in.OriginalText,
	})
}

// parseRewriteResponse strips markdown and surrounding quotes the model sometimes adds.
func parseRewriteResponse(responseText string) (string, error) {
	text := ingestion.StripMarkdown(responseText)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if text == "" {
		return "", &ParseError{Message: "empty response"}
	}
	return text, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
