package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/handlecraft/handlecraft-backend/config"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/domain"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/llm"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/prompt"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/validator"
)

// CompletionClient performs a single chat completion call.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)
}

// SuggestionCache is an optional store for validated results.
type SuggestionCache interface {
	Get(ctx context.Context, sub domain.SubmissionRequest) ([]domain.Suggestion, bool, error)
	Set(ctx context.Context, sub domain.SubmissionRequest, suggestions []domain.Suggestion) error
}

// SuggestionService turns a submission into validated handle suggestions.
type SuggestionService struct {
	cfg    config.DeepSeekConfig
	client CompletionClient
	cache  SuggestionCache
}

// NewSuggestionService creates a new suggestion service. cache may be nil.
func NewSuggestionService(cfg config.DeepSeekConfig, client CompletionClient, cache SuggestionCache) *SuggestionService {
	return &SuggestionService{
		cfg:    cfg,
		client: client,
		cache:  cache,
	}
}

// Configured reports whether the completion API credential is present.
func (s *SuggestionService) Configured() bool {
	return s.cfg.HasAPIKey()
}

// Suggest returns up to domain.MaxSuggestions suggestions for sub. Every
// failure is a *domain.RequestError.
func (s *SuggestionService) Suggest(ctx context.Context, sub domain.SubmissionRequest) ([]domain.Suggestion, error) {
	out, err := s.suggest(ctx, sub)
	recordOutcome(err)
	return out, err
}

func (s *SuggestionService) suggest(ctx context.Context, sub domain.SubmissionRequest) ([]domain.Suggestion, error) {
	logger := NewLogger(ctx)

	if !s.cfg.HasAPIKey() {
		logger.LogErrorf("suggest", "DEEPSEEK_API_KEY is not configured")
		return nil, domain.NewRequestError(domain.ErrServerMisconfigured, domain.MsgMissingAPIKey)
	}

	if cached, ok := s.lookupCache(ctx, logger, sub); ok {
		return cached, nil
	}

	req := llm.NewJSONRequest(s.cfg.Model, s.cfg.Temperature, prompt.SystemInstruction, prompt.UserInstruction(sub))

	start := time.Now()
	resp, err := s.client.Complete(ctx, req)
	recordUpstreamCall(time.Since(start), err)
	if err != nil {
		re := classifyCallError(err)
		logger.LogError("deepseek_complete", err)
		return nil, re
	}

	// Stage one: the envelope must carry message content.
	content, err := resp.Content()
	if err != nil {
		logger.LogWarnf("deepseek_complete", "%v id=%s", err, resp.ID)
		re := domain.NewRequestError(domain.ErrMalformedUpstreamContent, domain.MsgMalformedContent)
		re.Cause = err
		return nil, re
	}
	if content == "" {
		logger.LogWarnf("deepseek_complete", "empty content in completion envelope id=%s", resp.ID)
		return nil, domain.NewRequestError(domain.ErrEmptyUpstreamResponse, domain.MsgEmptyResponse)
	}

	// Stage two: the content itself must be JSON.
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		logger.LogWarnf("parse_content", "content is not JSON: %v", err)
		re := domain.NewRequestError(domain.ErrMalformedUpstreamContent, domain.MsgMalformedContent)
		re.Cause = err
		return nil, re
	}

	suggestions, err := validator.Validate(parsed)
	if err != nil {
		logger.LogWarnf("validate", "%v", err)
		re := domain.NewRequestError(domain.ErrInvalidSuggestionStructure, err.Error())
		re.Cause = err
		return nil, re
	}

	logger.LogInfof("suggest", "platform=%s tone=%s suggestions=%d", sub.Platform, sub.Tone, len(suggestions))
	s.storeCache(ctx, logger, sub, suggestions)
	return suggestions, nil
}

func (s *SuggestionService) lookupCache(ctx context.Context, logger *Logger, sub domain.SubmissionRequest) ([]domain.Suggestion, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, ok, err := s.cache.Get(ctx, sub)
	if err != nil {
		logger.LogWarnf("cache_get", "ignoring cache error: %v", err)
		return nil, false
	}
	recordCacheLookup(ok)
	return cached, ok
}

func (s *SuggestionService) storeCache(ctx context.Context, logger *Logger, sub domain.SubmissionRequest, suggestions []domain.Suggestion) {
	if s.cache == nil || len(suggestions) == 0 {
		return
	}
	if err := s.cache.Set(ctx, sub, suggestions); err != nil {
		logger.LogWarnf("cache_set", "ignoring cache error: %v", err)
	}
}

// classifyCallError maps a failed completion call onto the error taxonomy.
func classifyCallError(err error) *domain.RequestError {
	var se *llm.StatusError
	switch {
	case errors.As(err, &se):
		return domain.UpstreamError(se.StatusCode, se.Message, err)
	case errors.Is(err, llm.ErrBuildRequest), errors.Is(err, llm.ErrDecodeEnvelope), errors.Is(err, context.Canceled):
		return domain.UnexpectedError(err)
	case llm.IsTimeout(err):
		return domain.UpstreamError(http.StatusGatewayTimeout, http.StatusText(http.StatusGatewayTimeout), err)
	default:
		return domain.UpstreamError(http.StatusBadGateway, http.StatusText(http.StatusBadGateway), err)
	}
}
