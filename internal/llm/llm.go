// Package llm asks an OpenAI-compatible model to pre-review RPS documents.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/rpsplanner/internal/editor"
	"github.com/pavelanni/rpsplanner/internal/llm/prompts"
	"github.com/pavelanni/rpsplanner/internal/model"
)

// Verdicts the reviewer may return.
const (
	VerdictApprove = "approve"
	VerdictRevise  = "revise"
)

// Issue is one finding of a review.
type Issue struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// ReviewResult is the model's assessment of an RPS.
type ReviewResult struct {
	Verdict string  `json:"verdict"`
	Summary string  `json:"summary"`
	Issues  []Issue `json:"issues"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.Variant
}

// New creates a new LLM client. An unknown variant falls back to standard.
func New(baseURL, apiKey, modelName, variant string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	v := prompts.Variant(variant)
	if !prompts.IsValidVariant(variant) {
		v = prompts.Standard
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: v,
	}
}

// ReviewRPS sends the rendered document to the model. course may be nil.
// lang is "en" or "id" and selects the language of the feedback.
func (c *Client) ReviewRPS(ctx context.Context, d *editor.Document, course *model.Course, lang string) (*ReviewResult, error) {
	view := editor.Render(d)
	data := prompts.ReviewData{
		Course:   "-",
		Language: languageName(lang),
		Document: DocumentText(view),
	}
	if course != nil {
		data.Course = course.Code + " " + course.Name
		data.Credits = course.Credits
		data.Semester = course.Semester
	}
	for _, ref := range view.Dangling {
		data.Dangling = append(data.Dangling, fmt.Sprintf("%s[%d].%s = %s", ref.Collection, ref.Index, ref.Field, ref.Ref))
	}

	systemPrompt, err := prompts.BuildReview(c.variant, data)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)
	return parseReview(raw)
}

func parseReview(raw string) (*ReviewResult, error) {
	var result ReviewResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	result.Verdict = strings.ToLower(strings.TrimSpace(result.Verdict))
	if result.Verdict != VerdictApprove {
		result.Verdict = VerdictRevise
	}
	if result.Issues == nil {
		result.Issues = []Issue{}
	}
	return &result, nil
}

func languageName(lang string) string {
	if lang == "id" {
		return "Indonesian"
	}
	return "English"
}

// DocumentText renders a view as plain text for a prompt.
func DocumentText(v editor.View) string {
	var sb strings.Builder
	f := v.Form
	fmt.Fprintf(&sb, "Academic year: %s (%s)\n", f.AcademicYear, f.Semester)
	fmt.Fprintf(&sb, "Program: %s, %s\n", f.Program, f.Faculty)
	if f.Description != "" {
		sb.WriteString("Description: " + f.Description + "\n")
	}
	if len(f.TeachingMethods) > 0 {
		sb.WriteString("Methods: " + strings.Join(f.TeachingMethods, ", ") + "\n")
	}

	sb.WriteString("\nCPMK:\n")
	for _, c := range v.CourseOutcomes {
		fmt.Fprintf(&sb, "- %s: %s [CPL: %s]\n", c.Code, c.Description, strings.Join(c.CPLCodes, ", "))
		for _, s := range c.Subs {
			fmt.Fprintf(&sb, "  - %s: %s\n", s.Code, s.Description)
		}
	}

	sb.WriteString("\nWeekly plan:\n")
	for _, w := range v.WeeklyPlan {
		fmt.Fprintf(&sb, "- Week %d [%s] %s, %s, %d min, %s, weight %g\n",
			w.Week, w.SubCode, w.Topic, w.Method, w.Duration, w.Technique, w.WeightPct)
	}

	sb.WriteString("\nTasks:\n")
	for _, t := range v.Tasks {
		fmt.Fprintf(&sb, "- #%d %s [%s] (%s) due week %d, weight %g\n", t.Number, t.Title, t.SubCode, t.Type, t.DeadlineWeek, t.WeightPct)
		if t.Instructions != "" {
			sb.WriteString("  Instructions: " + t.Instructions + "\n")
		}
		if t.Output != "" {
			sb.WriteString("  Output: " + t.Output + "\n")
		}
	}

	sb.WriteString("\nAnalysis:\n")
	for _, a := range v.Analysis {
		span := fmt.Sprintf("%d", a.StartWeek)
		if a.EndWeek != nil && *a.EndWeek != a.StartWeek {
			span = fmt.Sprintf("%d-%d", a.StartWeek, *a.EndWeek)
		}
		fmt.Fprintf(&sb, "- Weeks %s, CPL %s, CPMK %s, Sub-CPMK %s, %s, weight %g\n",
			span, a.CPLCode, strings.Join(a.CPMKCodes, ", "), strings.Join(a.SubCodes, ", "), a.AssessmentType, a.WeightPct)
	}

	sb.WriteString("\nBibliography:\n")
	for _, b := range v.Mandatory {
		fmt.Fprintf(&sb, "- [mandatory] %s, %s (%d)\n", b.Title, b.Author, b.Year)
	}
	for _, b := range v.Supplementary {
		fmt.Fprintf(&sb, "- [supplementary] %s, %s (%d)\n", b.Title, b.Author, b.Year)
	}

	t := v.Totals
	fmt.Fprintf(&sb, "\nWeight totals: weekly plan %g, tasks %g, analysis %g\n", t.WeeklyPlan, t.Tasks, t.Analysis)
	return sb.String()
}

// Ping checks that the endpoint answers a model listing.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
