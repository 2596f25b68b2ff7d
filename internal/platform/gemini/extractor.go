package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/minutes-api/internal/config"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/extraction"
	"github.com/phrazzld/minutes-api/internal/redact"
	"google.golang.org/genai"
)

// responseExcerptRunes bounds how much of an unparseable response is logged.
const responseExcerptRunes = 200

//go:embed prompts/extract_tasks.tmpl
var defaultPrompt string

// contentGenerator is the subset of the genai client the extractor uses.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// promptData represents the data passed to the prompt template.
type promptData struct {
	Transcript string
}

// GeminiExtractor implements extraction.Extractor using the Gemini API.
type GeminiExtractor struct {
	logger         *slog.Logger
	models         contentGenerator
	model          string
	promptTemplate *template.Template
	timeout        time.Duration
}

var _ extraction.Extractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates a GeminiExtractor from LLM configuration. The
// prompt comes from cfg.PromptTemplatePath when set and from the embedded
// default otherwise.
func NewGeminiExtractor(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiExtractor, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", extraction.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", extraction.ErrInvalidConfig, err)
	}

	return newExtractor(logger, client.Models, cfg)
}

func newExtractor(logger *slog.Logger, models contentGenerator, cfg config.LLMConfig) (*GeminiExtractor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", extraction.ErrInvalidConfig)
	}

	tmpl, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	return &GeminiExtractor{
		logger:         logger.With(slog.String("component", "gemini_extractor")),
		models:         models,
		model:          cfg.ModelName,
		promptTemplate: tmpl,
		timeout:        cfg.RequestTimeout(),
	}, nil
}

func loadPromptTemplate(path string) (*template.Template, error) {
	text := defaultPrompt
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				extraction.ErrInvalidConfig, path, err)
		}
		text = string(content)
	}

	tmpl, err := template.New("extract_tasks").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", extraction.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// createPrompt renders the prompt template for transcript.
func (g *GeminiExtractor) createPrompt(transcript string) (string, error) {
	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{Transcript: transcript}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// ExtractTasks implements extraction.Extractor.
func (g *GeminiExtractor) ExtractTasks(ctx context.Context, transcript string) ([]domain.CandidateTask, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, extraction.ErrEmptyTranscript
	}

	prompt, err := g.createPrompt(transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extraction.ErrExtractionFailed, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.DebugContext(ctx, "calling Gemini",
		slog.String("model", g.model),
		slog.Int("prompt_length", len(prompt)))

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "Gemini API call failed",
			slog.String("error", redact.Error(err)),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%w: gemini request: %v", extraction.ErrExtractionFailed, err)
	}

	text, err := responseText(resp)
	if err != nil {
		g.logger.WarnContext(ctx, "unusable Gemini response", slog.String("error", err.Error()))
		return nil, err
	}

	candidates, err := extraction.ParseCandidates(text)
	if err != nil {
		g.logger.WarnContext(ctx, "Gemini response is not a task list",
			slog.String("error", err.Error()),
			slog.Int("response_length", len(text)),
			slog.String("response_excerpt", redact.Excerpt(text, responseExcerptRunes)))
		return nil, err
	}

	g.logger.InfoContext(ctx, "Gemini extraction succeeded",
		slog.Int("candidate_count", len(candidates)),
		slog.Duration("elapsed", time.Since(start)))

	return candidates, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", extraction.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", extraction.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", extraction.ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", ErrEmptyContent
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyContent
	}
	return sb.String(), nil
}
