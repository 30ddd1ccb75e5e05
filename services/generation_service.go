package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"health-copilot-backend/config"
)

// Generator produces working-language text for a prompt. Implementations must
// always return usable text: upstream failures degrade to a canned message and
// never surface as errors, so the dispatch pipeline cannot crash on generation.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

const (
	// Returned when the response body has no usable candidate text.
	generationFillerReply = "No response from Gemini."

	// Returned when the generation endpoint is unreachable or keeps timing out.
	generationFailureReply = "Sorry, I'm having trouble reaching the assistant service right now. Please try again in a moment."
)

type GenerationService struct {
	apiKey      string
	apiURL      string
	maxTokens   int
	temperature float64
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewGenerationService(cfg config.AIConfig, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		apiKey:      cfg.APIKey,
		apiURL:      fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", cfg.Model),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate submits the prompt to the generation endpoint. Timeouts are retried
// up to the configured number of attempts with a fixed delay in between; any
// other failure aborts immediately with the canned apology.
func (s *GenerationService) Generate(ctx context.Context, prompt string) string {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     s.temperature,
			MaxOutputTokens: s.maxTokens,
		},
		SafetySettings: []geminiSafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal generation request", zap.Error(err))
		return generationFailureReply
	}

	endpoint := fmt.Sprintf("%s?key=%s", s.apiURL, s.apiKey)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
		if err != nil {
			s.logger.Error("failed to build generation request", zap.Error(err))
			return generationFailureReply
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if isTimeout(err) && attempt < s.maxAttempts {
				s.logger.Warn("generation request timed out, retrying",
					zap.Int("attempt", attempt),
					zap.Duration("retry_delay", s.retryDelay))
				time.Sleep(s.retryDelay)
				continue
			}
			s.logger.Error("generation request failed", zap.Int("attempt", attempt), zap.Error(err))
			return generationFailureReply
		}

		text, err := s.extractText(resp)
		if err != nil {
			s.logger.Error("generation response unusable", zap.Error(err))
			return generationFailureReply
		}
		return text
	}

	return generationFailureReply
}

// extractText pulls the first candidate's first text part out of the response.
// A well-formed but empty response yields the filler string, not a failure.
func (s *GenerationService) extractText(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return generationFillerReply, nil
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return generationFillerReply, nil
	}

	text := result.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return generationFillerReply, nil
	}
	return text, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
