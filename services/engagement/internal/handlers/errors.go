package handlers

import (
	"errors"
	"net/http"

	"github.com/example/blog-engagement/internal/platform/api"
	"github.com/example/blog-engagement/internal/platform/httpserver"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
)

func validationCode(err error) string {
	switch {
	case errors.Is(err, engagement.ErrEmptyContent):
		return "EMPTY_CONTENT"
	case errors.Is(err, engagement.ErrMissingAuthor):
		return "MISSING_AUTHOR"
	case errors.Is(err, engagement.ErrInvalidStatus):
		return "INVALID_STATUS"
	case errors.Is(err, engagement.ErrMissingSubject):
		return "MISSING_ID"
	}
	return "INVALID_ARGUMENT"
}

// writeError maps engine errors onto the JSON error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := httpserver.RequestIDFromContext(r.Context())

	var ve *engagement.ValidationError
	var se *engagement.StorageError
	switch {
	case errors.Is(err, engagement.ErrUnauthenticated):
		api.Unauthorized(w, "UNAUTHENTICATED", "authentication required", reqID)
	case errors.As(err, &ve):
		api.BadRequest(w, validationCode(err), ve.Err.Error(), reqID, map[string]any{"field": ve.Field})
	case errors.Is(err, engagement.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "comment not found", reqID)
	case errors.As(err, &se):
		api.Unavailable(w, "STORAGE_UNAVAILABLE", "storage temporarily unavailable, retry later", reqID)
	default:
		api.Internal(w, reqID)
	}
}
