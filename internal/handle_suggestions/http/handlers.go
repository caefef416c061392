package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/handlecraft/handlecraft-backend/internal/api/http/middleware"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/domain"
)

func (h *Handler) suggest(c *gin.Context) {
	var req suggestReq
	if err := decodeBody(c.Request.Body, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: domain.MsgInvalidPayload})
		return
	}

	name := ""
	if req.Name != nil {
		name = *req.Name
	}

	sub, err := domain.NewSubmission(name, req.Tone, req.Platform)
	if err != nil {
		writeError(c, err)
		return
	}

	suggestions, err := h.suggester.Suggest(c.Request.Context(), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}

	c.JSON(http.StatusOK, suggestResp{Suggestions: suggestions})
}

func (h *Handler) options(c *gin.Context) {
	c.JSON(http.StatusOK, optionsResp{
		Tones:           domain.Tones(),
		Platforms:       domain.Platforms(),
		DefaultTone:     domain.DefaultTone,
		DefaultPlatform: domain.DefaultPlatform,
		MaxSuggestions:  domain.MaxSuggestions,
	})
}

// decodeBody decodes exactly one JSON value; trailing non-whitespace input
// is an error.
func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("unexpected data after JSON value")
	}
}

// writeError converts any error into the {error} body and status.
func writeError(c *gin.Context, err error) {
	re := domain.AsRequestError(err)
	if errors.Is(re, domain.ErrUnexpectedFailure) {
		log.Printf("[error] request_id=%s operation=suggest error=%v", middleware.GetRequestID(c.Request.Context()), err)
	}
	c.JSON(re.Status, errorResp{Error: re.Message})
}
