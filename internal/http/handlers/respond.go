package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every error answers with a user-safe message and nothing else; no
// driver or stack detail leaves the process.
type APIError struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, APIError{
		Message:   message,
		RequestID: requestIDFrom(ctx),
	})
}

// 422: malformed input, duplicate email, unresolvable address.
func RespondUnprocessable(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnprocessableEntity, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

// 403: the caller's identity could not be established.
func RespondAuthFailed(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, message)
}

// 401: a valid identity without permission on the target.
func RespondNotAuthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}
