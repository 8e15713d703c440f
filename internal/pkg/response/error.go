package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Kind    apperror.Kind  `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			log.Ctx(c.Request.Context()).Error().Err(appErr.Err).Str("kind", string(appErr.Kind)).Msg(appErr.Message)
		}
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message, Kind: appErr.Kind, Details: appErr.Details})
		return
	}

	log.Ctx(c.Request.Context()).Error().Err(err).Msg("Unhandled error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: apperror.KindInternal})
}

// BadRequest reports a binding failure with the validator's details.
func BadRequest(c *gin.Context, message string, err error) {
	details := map[string]any{}
	if err != nil {
		details["reason"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Kind: apperror.KindValidation, Details: details})
}
