package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
)

var errInternal = errors.New("internal error")

// RespondDomainError maps an *aggregates.Error code to a status. Internal
// failures are reported without their cause.
func RespondDomainError(c *gin.Context, err error) {
	switch aggregates.CodeOf(err) {
	case aggregates.CodeValidation:
		RespondError(c, http.StatusBadRequest, "invalid_completion", err)
	case aggregates.CodeConfiguration:
		RespondError(c, http.StatusServiceUnavailable, "completion_tracking_disabled", err)
	case aggregates.CodeNotEnrolled:
		RespondError(c, http.StatusForbidden, "not_enrolled", err)
	case aggregates.CodeNotFound:
		RespondError(c, http.StatusNotFound, "not_found", err)
	case aggregates.CodeConflict, aggregates.CodeRetryable:
		RespondError(c, http.StatusConflict, "retry", err)
	default:
		if err != nil {
			_ = c.Error(err)
		}
		RespondError(c, http.StatusInternalServerError, "internal", errInternal)
	}
}
