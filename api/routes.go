package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NetaKon/Real-Time-Forum/database"
	"github.com/NetaKon/Real-Time-Forum/metrics"
	"github.com/NetaKon/Real-Time-Forum/utils"
)

// HealthHandler reports whether the store answers a ping.
func HealthHandler(store database.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			utils.SendJSONError(c, http.StatusServiceUnavailable, "store unavailable", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// RegisterRoutes mounts the question endpoints under basePath, the websocket endpoint
// at /ws and the operational endpoints.
func RegisterRoutes(r *gin.Engine, basePath string, handler *QuestionHandler, ws http.Handler, store database.Pinger) {
	questions := r.Group(basePath)
	{
		// The collection is reachable with and without a trailing slash.
		for _, root := range []string{"", "/"} {
			questions.POST(root, handler.CreateQuestionHandler)
			questions.GET(root, handler.ListQuestionsHandler)
			questions.DELETE(root, handler.DeleteAllQuestionsHandler)
		}
		questions.GET("/:id", handler.GetQuestionHandler)
		questions.PUT("/:id", handler.UpdateQuestionHandler)
		questions.DELETE("/:id", handler.DeleteQuestionHandler)
		questions.POST("/:id", handler.PostAnswerHandler)
	}

	if ws != nil {
		r.GET("/ws", gin.WrapH(ws))
	}
	r.GET("/healthz", HealthHandler(store))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
