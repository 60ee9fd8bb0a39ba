package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/NetaKon/Real-Time-Forum/errorz"
)

func TestSendError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", errorz.Validation("'title' cannot be empty."), http.StatusBadRequest, `{"error":"'title' cannot be empty."}`},
		{"invalid id", errorz.ErrInvalidID, http.StatusBadRequest, `{"error":"Invalid question ID."}`},
		{"not found", errorz.ErrNotFound, http.StatusNotFound, `{"error":"Question not found."}`},
		{"wrapped store failure", fmt.Errorf("list: %w", errorz.Unavailable("count questions", errors.New("dial tcp: refused"))), http.StatusInternalServerError, `{"error":"Sorry, that error is on us"}`},
		{"untagged error", errors.New("boom"), http.StatusInternalServerError, `{"error":"Sorry, that error is on us"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/questions", nil)

			SendError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
			assert.True(t, c.IsAborted())
		})
	}
}
