package seo

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/medcontent/internal/llm"
	"github.com/jonathan/medcontent/internal/prompts"
	"github.com/jonathan/medcontent/internal/schemas"
)

// maxPromptContent bounds how much of the post is sent for title generation.
const maxPromptContent = 4000

// TitleResult is the generated title and meta data for a post.
type TitleResult struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Hashtags        []string `json:"hashtags"`
	PrimaryKeyword  string   `json:"primary_keyword"`
}

// TitleGenerator asks the model for a title, meta description and hashtags.
type TitleGenerator struct {
	client llm.Client
}

// NewTitleGenerator creates a TitleGenerator over client.
func NewTitleGenerator(client llm.Client) *TitleGenerator {
	return &TitleGenerator{client: client}
}

// Generate produces the title data for a post. The model's JSON must match the title schema.
func (g *TitleGenerator) Generate(ctx context.Context, text, specialty string) (TitleResult, error) {
	prompt, err := prompts.Render("seo.json", "generate-title", map[string]string{
		"Specialty": orDefault(specialty, "medical"),
		"Content":   truncateRunes(text, maxPromptContent),
	})
	if err != nil {
		return TitleResult{}, err
	}

	// Short structured output, lite tier is enough
	raw, err := g.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return TitleResult{}, &GenerationError{Message: "model call failed", Cause: err}
	}
	raw = llm.CleanJSONBlock(raw)

	if err := schemas.Validate(schemas.Title, []byte(raw)); err != nil {
		return TitleResult{}, &GenerationError{Message: "response does not match title schema", Cause: err}
	}

	var result TitleResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return TitleResult{}, &GenerationError{Message: "failed to decode response", Cause: err}
	}

	result.Title = strings.TrimSpace(result.Title)
	result.MetaDescription = strings.TrimSpace(result.MetaDescription)
	result.PrimaryKeyword = strings.TrimSpace(result.PrimaryKeyword)
	result.Hashtags = MergeHashtags(nil, result.Hashtags)
	return result, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
