package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NetaKon/Real-Time-Forum/errorz"
	"github.com/NetaKon/Real-Time-Forum/models"
	"github.com/NetaKon/Real-Time-Forum/services"
	"github.com/NetaKon/Real-Time-Forum/utils"
)

const (
	defaultPage  = 0
	defaultLimit = 10
)

// QuestionHandler serves the question endpoints.
type QuestionHandler struct {
	questionService services.QuestionService
	basePath        string
}

// NewQuestionHandler creates a QuestionHandler. basePath is used to build "next" links.
func NewQuestionHandler(questionService services.QuestionService, basePath string) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		basePath:        basePath,
	}
}

// CreateQuestionHandler handles POST <base>.
func (h *QuestionHandler) CreateQuestionHandler(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	question, err := h.questionService.Create(c.Request.Context(), services.QuestionFields{
		Title:   body["title"],
		Content: body["content"],
	})
	if err != nil {
		utils.SendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": []models.QuestionRecord{models.QuestionToBoundary(question)}})
}

// GetQuestionHandler handles GET <base>/:id.
func (h *QuestionHandler) GetQuestionHandler(c *gin.Context) {
	question, err := h.questionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": []models.QuestionRecord{models.QuestionToBoundary(question)}})
}

// ListQuestionsHandler handles GET <base>?page=&limit=. Missing or non-integer values
// fall back to page 0 and limit 10.
func (h *QuestionHandler) ListQuestionsHandler(c *gin.Context) {
	page := queryInt(c, "page", defaultPage)
	limit := queryInt(c, "limit", defaultLimit)

	result, err := h.questionService.List(c.Request.Context(), page, limit)
	if err != nil {
		utils.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":          models.QuestionsToBoundary(result.Items),
		"page":          result.Page,
		"has_next":      result.HasNext,
		"next":          fmt.Sprintf("%s?page=%d&limit=%d", h.basePath, result.Page+1, result.Limit),
		"total_results": result.Total,
	})
}

// UpdateQuestionHandler handles PUT <base>/:id.
func (h *QuestionHandler) UpdateQuestionHandler(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	question, err := h.questionService.Update(c.Request.Context(), c.Param("id"), services.QuestionFields{
		Title:   body["title"],
		Content: body["content"],
	})
	if err != nil {
		utils.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": []models.QuestionRecord{models.QuestionToBoundary(question)}})
}

// DeleteQuestionHandler handles DELETE <base>/:id.
func (h *QuestionHandler) DeleteQuestionHandler(c *gin.Context) {
	if err := h.questionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAllQuestionsHandler handles DELETE <base>.
func (h *QuestionHandler) DeleteAllQuestionsHandler(c *gin.Context) {
	if _, err := h.questionService.DeleteAll(c.Request.Context()); err != nil {
		utils.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostAnswerHandler handles POST <base>/:id.
func (h *QuestionHandler) PostAnswerHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := models.ParseID(id); err != nil {
		utils.SendError(c, err)
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	answers, err := h.questionService.PostAnswer(c.Request.Context(), id, services.QuestionFields{
		Content: body["content"],
	})
	if err != nil {
		utils.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": models.AnswersToBoundary(answers)})
}

// bindObject decodes the request body as a JSON object. It writes the 400 response
// itself and reports false when the body is anything else.
func bindObject(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		utils.SendError(c, errorz.Validation("Request body must be a JSON object."))
		return nil, false
	}
	return body, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
