package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/apierr"
)

// StatusForError maps the gallery error taxonomy onto HTTP.
func StatusForError(err error) (int, string) {
	var (
		ve *assets.ValidationError
		de *assets.DecodeError
		ne *assets.NetworkError
		ae *apierr.Error
	)
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &ae) && ae.Status != 0:
		return apierr.StatusOf(err)
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity, "decode_error"
	case errors.As(err, &ne):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "client_closed_request"
	}
	return http.StatusInternalServerError, "internal_error"
}

// RespondErr writes err with the status StatusForError picks and records it
// on the gin context for the request logger.
func RespondErr(c *gin.Context, err error) {
	status, code := StatusForError(err)
	_ = c.Error(err)
	env := ErrorEnvelope{Error: APIError{Message: "unknown error", Code: code}}
	if err != nil {
		env.Error.Message = err.Error()
	}
	var ve *assets.ValidationError
	if errors.As(err, &ve) {
		env.Error.Field = ve.Field
	}
	if status >= 500 && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		env.Error.Message = http.StatusText(status)
	}
	c.JSON(status, env)
}
