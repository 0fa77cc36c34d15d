package ai

import (
	"context"
	"errors"
	"fmt"

	"video-summarizer/shared/config"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers without any text,
// typically because the output was filtered.
var ErrEmptyResponse = errors.New("empty response from model")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Summarizer struct {
	models contentGenerator
	model  string
}

// Result carries either the generated summary or the failure that replaced it.
type Result struct {
	Text string
	Err  error
}

// Content is what the caller shows the user. Failures become readable text
// instead of an error so a summary request still completes.
func (r Result) Content() string {
	if r.Err != nil {
		return fmt.Sprintf("An error occurred during summarization: %v", r.Err)
	}
	return r.Text
}

func NewSummarizer(ctx context.Context, cfg *config.AIConfig) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Summarizer{models: client.Models, model: cfg.Model}, nil
}

// Summarize asks the model for a structured summary of transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) Result {
	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(transcript), genai.RoleUser),
	}

	resp, err := s.models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return Result{Err: err}
	}

	text := resp.Text()
	if text == "" {
		return Result{Err: ErrEmptyResponse}
	}
	return Result{Text: text}
}

func buildPrompt(transcript string) string {
	return fmt.Sprintf(`You are a helpful assistant that summarizes YouTube videos for users.
Summarize the following YouTube video transcript in a clear and structured way.
Transcript:
"""
%s
"""
Please include the following in your summary:
1. **Key Points or Sections**: List the main topics or arguments made in the video, broken down into detailed bullet points. Please expand these points to get the full idea across to lay users. For hard to understand concepts, it is best to expand on it further in a clear way.
2. **Conclusion or Takeaway**: Summarize the main message or action the video encourages.
Make the language natural and viewer-friendly. Avoid repetition and filler.`, transcript)
}
