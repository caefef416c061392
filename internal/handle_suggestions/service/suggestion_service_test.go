package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/handlecraft/handlecraft-backend/config"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/domain"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/llm"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = domain.SubmissionRequest{Name: "Alice", Tone: domain.ToneProfessional, Platform: domain.PlatformInstagram}

func deepSeekConfig(url string) config.DeepSeekConfig {
	return config.DeepSeekConfig{
		APIKey:      "sk-test",
		BaseURL:     url,
		Model:       "deepseek-chat",
		Temperature: 0.7,
		Timeout:     2 * time.Second,
	}
}

// completionServer answers every call with content wrapped in a chat
// completion envelope.
func completionServer(t *testing.T, content string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		envelope := map[string]any{
			"id": "cmpl-test",
			"choices": []any{
				map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope)
	}))
}

func newService(url string, cache SuggestionCache) *SuggestionService {
	cfg := deepSeekConfig(url)
	return NewSuggestionService(cfg, llm.NewDeepSeek(cfg), cache)
}

func TestSuggest_MissingAPIKey(t *testing.T) {
	var calls int32
	server := completionServer(t, `{"suggestions":[]}`, &calls)
	defer server.Close()

	cfg := deepSeekConfig(server.URL)
	cfg.APIKey = ""
	svc := NewSuggestionService(cfg, llm.NewDeepSeek(cfg), nil)

	assert.False(t, svc.Configured())
	_, err := svc.Suggest(context.Background(), alice)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerMisconfigured)

	re := domain.AsRequestError(err)
	assert.Equal(t, http.StatusInternalServerError, re.Status)
	assert.Equal(t, "DeepSeek API key is not configured on the server.", re.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no network call without a credential")
}

func TestSuggest_SendsPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[0].Content, "HandleCraft")
			assert.Contains(t, req.Messages[1].Content, `Target name: "Alice".`)
			assert.Contains(t, req.Messages[1].Content, "business-forward voice")
			assert.Contains(t, req.Messages[1].Content, "Instagram handle rules")
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"suggestions\":[{\"handle\":\"alice.co\",\"rationale\":\"clean\"}]}"}}]}`))
	}))
	defer server.Close()

	out, err := newService(server.URL, nil).Suggest(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, []domain.Suggestion{{Handle: "alice.co", Rationale: "clean"}}, out)
}

func TestSuggest_FiltersMalformedItems(t *testing.T) {
	server := completionServer(t, `{"suggestions":[{"handle":"al_x","rationale":"short"},{"handle":"","rationale":"dropped"},{"handle":42,"rationale":"bad type"}]}`, nil)
	defer server.Close()

	out, err := newService(server.URL, nil).Suggest(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, []domain.Suggestion{{Handle: "al_x", Rationale: "short"}}, out)
}

func TestSuggest_TruncatesToFive(t *testing.T) {
	items := make([]map[string]string, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, map[string]string{"handle": fmt.Sprintf("al_%d", i), "rationale": "ok"})
	}
	content, err := json.Marshal(map[string]any{"suggestions": items})
	require.NoError(t, err)

	server := completionServer(t, string(content), nil)
	defer server.Close()

	out, err := newService(server.URL, nil).Suggest(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, s := range out {
		assert.Equal(t, fmt.Sprintf("al_%d", i), s.Handle)
	}
}

func TestSuggest_ContentFailures(t *testing.T) {
	cases := []struct {
		name    string
		content string
		kind    error
		message string
	}{
		{"empty content", "", domain.ErrEmptyUpstreamResponse, "DeepSeek returned an empty response."},
		{"not json", "not json", domain.ErrMalformedUpstreamContent, "DeepSeek response was not valid JSON. Try again."},
		{"missing suggestions", `{"ideas":[]}`, domain.ErrInvalidSuggestionStructure, "Missing suggestions in response."},
		{"suggestions not array", `{"suggestions":"al_x"}`, domain.ErrInvalidSuggestionStructure, "Suggestions should be an array."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := completionServer(t, tc.content, nil)
			defer server.Close()

			out, err := newService(server.URL, nil).Suggest(context.Background(), alice)
			assert.Nil(t, out)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)

			re := domain.AsRequestError(err)
			assert.Equal(t, http.StatusBadGateway, re.Status)
			assert.Equal(t, tc.message, re.Message)
		})
	}
}

func TestSuggest_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newService(server.URL, nil).Suggest(context.Background(), alice)
	assert.ErrorIs(t, err, domain.ErrEmptyUpstreamResponse)
}

func TestSuggest_NonStringContentIsMalformed(t *testing.T) {
	for _, content := range []string{`{"suggestions":[]}`, `["al_x"]`, `42`, `true`} {
		t.Run(content, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + content + `}}]}`))
			}))
			defer server.Close()

			_, err := newService(server.URL, nil).Suggest(context.Background(), alice)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedUpstreamContent)
			assert.ErrorIs(t, err, llm.ErrContentNotText)

			re := domain.AsRequestError(err)
			assert.Equal(t, http.StatusBadGateway, re.Status)
			assert.Equal(t, "DeepSeek response was not valid JSON. Try again.", re.Message)
		})
	}
}

func TestSuggest_NullContentIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null}}]}`))
	}))
	defer server.Close()

	_, err := newService(server.URL, nil).Suggest(context.Background(), alice)
	assert.ErrorIs(t, err, domain.ErrEmptyUpstreamResponse)
}

func TestSuggest_UpstreamStatusMirrored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Insufficient Balance"}}`))
	}))
	defer server.Close()

	_, err := newService(server.URL, nil).Suggest(context.Background(), alice)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRequestFailed)

	re := domain.AsRequestError(err)
	assert.Equal(t, http.StatusPaymentRequired, re.Status)
	assert.Equal(t, "DeepSeek request failed: Insufficient Balance", re.Message)
}

func TestSuggest_UpstreamTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := deepSeekConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	svc := NewSuggestionService(cfg, llm.NewDeepSeek(cfg), nil)

	_, err := svc.Suggest(context.Background(), alice)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRequestFailed)
	assert.Equal(t, http.StatusGatewayTimeout, domain.AsRequestError(err).Status)
}

func TestSuggest_UpstreamUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newService(url, nil).Suggest(context.Background(), alice)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRequestFailed)

	re := domain.AsRequestError(err)
	assert.Equal(t, http.StatusBadGateway, re.Status)
	assert.Equal(t, "DeepSeek request failed: Bad Gateway", re.Message)
}

func TestSuggest_BadEnvelopeIsUnexpected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>proxy error</html>`))
	}))
	defer server.Close()

	_, err := newService(server.URL, nil).Suggest(context.Background(), alice)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnexpectedFailure)
	assert.Equal(t, "Failed to contact agent.", domain.AsRequestError(err).Message)
}

func TestSuggest_UsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var calls int32
	server := completionServer(t, `{"suggestions":[{"handle":"alice.co","rationale":"clean"}]}`, &calls)
	defer server.Close()

	ResetMetrics()
	svc := newService(server.URL, repository.NewSuggestionCache(client, time.Minute))

	first, err := svc.Suggest(context.Background(), alice)
	require.NoError(t, err)
	second, err := svc.Suggest(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	m := GetMetrics().Snapshot()
	assert.Equal(t, int64(1), m.CacheHits)
	assert.Equal(t, int64(1), m.CacheMisses)
	assert.Equal(t, int64(1), m.UpstreamCalls)
	assert.Equal(t, int64(2), m.RequestsSucceeded)
}

func TestSuggest_CacheOutageFallsThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	server := completionServer(t, `{"suggestions":[{"handle":"alice.co","rationale":"clean"}]}`, nil)
	defer server.Close()

	out, err := newService(server.URL, repository.NewSuggestionCache(client, time.Minute)).Suggest(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestSuggest_DoesNotCacheEmptyResults(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var calls int32
	server := completionServer(t, `{"suggestions":[]}`, &calls)
	defer server.Close()

	svc := newService(server.URL, repository.NewSuggestionCache(client, time.Minute))
	for i := 0; i < 2; i++ {
		out, err := svc.Suggest(context.Background(), alice)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMetrics_Rates(t *testing.T) {
	ResetMetrics()
	recordUpstreamCall(10*time.Millisecond, nil)
	recordUpstreamCall(30*time.Millisecond, fmt.Errorf("boom"))

	m := GetMetrics()
	assert.InDelta(t, 20.0, m.AverageUpstreamLatency(), 0.001)
	assert.InDelta(t, 50.0, m.UpstreamErrorRate(), 0.001)

	ResetMetrics()
	assert.Equal(t, 0.0, GetMetrics().AverageUpstreamLatency())
}
