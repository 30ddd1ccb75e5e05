package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"health-copilot-backend/config"
)

// WorkingLanguage is the single internal language all classification and
// generation prompts operate in.
const WorkingLanguage = "en"

// Translator normalizes inbound text to the working language and localizes
// outbound replies. Both directions are best-effort: on any failure the text
// passes through unchanged so the pipeline never blocks on translation.
type Translator interface {
	// ToWorking returns the working-language text and the detected source
	// language code. Failures yield the original text and WorkingLanguage.
	ToWorking(ctx context.Context, text string) (string, string)

	// ToUser localizes working-language text back to the user's language.
	// A no-op when lang is the working language.
	ToUser(ctx context.Context, text, lang string) string
}

type TranslationService struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewTranslationService(cfg config.TranslateConfig, logger *zap.Logger) *TranslationService {
	return &TranslationService{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (s *TranslationService) ToWorking(ctx context.Context, text string) (string, string) {
	if strings.TrimSpace(text) == "" {
		return text, WorkingLanguage
	}

	translated, detected, err := s.translate(ctx, text, "auto", WorkingLanguage)
	if err != nil {
		s.logger.Warn("language normalization failed, passing text through", zap.Error(err))
		return text, WorkingLanguage
	}

	if detected == WorkingLanguage {
		// Already in the working language; keep the user's exact wording.
		return text, WorkingLanguage
	}
	return translated, detected
}

func (s *TranslationService) ToUser(ctx context.Context, text, lang string) string {
	if lang == "" || lang == WorkingLanguage {
		return text
	}

	translated, _, err := s.translate(ctx, text, WorkingLanguage, lang)
	if err != nil {
		s.logger.Warn("reply localization failed, returning working-language text",
			zap.String("target_lang", lang), zap.Error(err))
		return text
	}
	return translated
}

// translate calls the translate_a/single endpoint. The response is a nested
// JSON array: translated sentence chunks at index 0, the detected source
// language code at index 2.
func (s *TranslationService) translate(ctx context.Context, text, source, target string) (string, string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("translate endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	return parseTranslatePayload(body, text)
}

func parseTranslatePayload(body []byte, original string) (string, string, error) {
	var raw []interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", "", err
	}

	translated := collectSentences(raw)
	if translated == "" {
		translated = original
	}

	detected := WorkingLanguage
	if len(raw) > 2 {
		if code, ok := raw[2].(string); ok && code != "" {
			detected = code
		}
	}

	return translated, detected, nil
}

func collectSentences(raw []interface{}) string {
	if len(raw) == 0 {
		return ""
	}
	chunks, ok := raw[0].([]interface{})
	if !ok {
		return ""
	}

	var sb strings.Builder
	for _, c := range chunks {
		chunk, ok := c.([]interface{})
		if !ok || len(chunk) == 0 {
			continue
		}
		if sentence, ok := chunk[0].(string); ok {
			sb.WriteString(sentence)
		}
	}
	return sb.String()
}
