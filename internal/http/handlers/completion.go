package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
	"github.com/yungbote/neurobridge-completion/internal/http/response"
	"github.com/yungbote/neurobridge-completion/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-completion/internal/services"
)

type CompletionHandler struct {
	completions services.CompletionService
}

func NewCompletionHandler(completions services.CompletionService) *CompletionHandler {
	return &CompletionHandler{completions: completions}
}

type submitCompletionRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	CourseKey  string `json:"course_key" binding:"required"`
	BlockKey   string `json:"block_key" binding:"required"`
	Completion any    `json:"completion"`
}

type submitBatchRequest struct {
	UserID    string         `json:"user_id" binding:"required"`
	CourseKey string         `json:"course_key" binding:"required"`
	Blocks    map[string]any `json:"blocks" binding:"required"`
}

// POST /api/completion/v1/submit
func (h *CompletionHandler) Submit(c *gin.Context) {
	var req submitCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID, courseKey, err := parseTarget(req.UserID, req.CourseKey)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	h.attach(c, userID, courseKey)

	blockKey, err := keys.ParseUsageKey(req.BlockKey)
	if err != nil {
		response.RespondDomainError(c, invalid("block_key", err))
		return
	}
	value, err := completion.Coerce(req.Completion)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}

	row, created, err := h.completions.SubmitCompletion(c.Request.Context(), userID, courseKey, blockKey, value)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"completion": row, "created": created})
}

// POST /api/completion/v1/batch
func (h *CompletionHandler) SubmitBatch(c *gin.Context) {
	var req submitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID, courseKey, err := parseTarget(req.UserID, req.CourseKey)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	h.attach(c, userID, courseKey)

	items, err := batchItems(req.Blocks)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if err := h.completions.SubmitBatchCompletion(c.Request.Context(), userID, courseKey, items); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"detail": "ok"})
}

// GET /api/completion/v1/users/:user_id/courses/:course_key
func (h *CompletionHandler) CourseCompletions(c *gin.Context) {
	userID, courseKey, err := parseTarget(c.Param("user_id"), c.Param("course_key"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	h.attach(c, userID, courseKey)

	byBlock, err := h.completions.CourseCompletions(c.Request.Context(), userID, courseKey)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	out := make(map[string]float64, len(byBlock))
	for k, v := range byBlock {
		out[k.String()] = v
	}
	response.RespondOK(c, gin.H{"completions": out})
}

func (h *CompletionHandler) attach(c *gin.Context, userID uuid.UUID, courseKey keys.CourseKey) {
	ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
		UserID:    userID.String(),
		CourseKey: courseKey.String(),
	})
	c.Request = c.Request.WithContext(ctx)
}

func parseTarget(rawUser, rawCourse string) (uuid.UUID, keys.CourseKey, error) {
	userID, err := uuid.Parse(rawUser)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, keys.CourseKey{}, invalid("user_id", err)
	}
	courseKey, err := keys.ParseCourseKey(rawCourse)
	if err != nil {
		return uuid.Nil, keys.CourseKey{}, invalid("course_key", err)
	}
	return userID, courseKey, nil
}

// batchItems parses every entry before any is submitted. Keys are sorted so a
// bad request reports the same offending entry every time.
func batchItems(blocks map[string]any) ([]services.BatchItem, error) {
	raw := make([]string, 0, len(blocks))
	for k := range blocks {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	items := make([]services.BatchItem, 0, len(raw))
	for _, k := range raw {
		blockKey, err := keys.ParseUsageKey(k)
		if err != nil {
			return nil, invalid("blocks", err)
		}
		value, err := completion.Coerce(blocks[k])
		if err != nil {
			return nil, err
		}
		items = append(items, services.BatchItem{BlockKey: blockKey, Completion: value})
	}
	return items, nil
}

func invalid(field string, cause error) error {
	msg := "invalid " + field
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return aggregates.NewError(aggregates.CodeValidation, "http.completion", msg, cause)
}
