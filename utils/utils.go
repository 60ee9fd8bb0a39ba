package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/NetaKon/Real-Time-Forum/errorz"
	"github.com/NetaKon/Real-Time-Forum/logging"
)

// InternalErrorMessage is the only body clients see for 5xx responses.
const InternalErrorMessage = "Sorry, that error is on us"

var log = logging.For("Handler")

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind errorz.Kind) int {
	switch kind {
	case errorz.KindValidation, errorz.KindInvalidID:
		return http.StatusBadRequest
	case errorz.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// SendError classifies err and sends the JSON error response.
// For 5xx errors only the generic message is sent; the actual error is logged.
func SendError(c *gin.Context, err error) {
	status := StatusFor(errorz.KindOf(err))
	if status >= http.StatusInternalServerError {
		SendJSONError(c, status, InternalErrorMessage, err)
		return
	}
	SendJSONError(c, status, errorz.PublicMessage(err), nil)
}

// SendJSONError sends a standardized JSON error response and logs the internal error.
// For 5xx errors, it sends a generic public message while logging the actual internalError.
func SendJSONError(c *gin.Context, statusCode int, publicMsg string, internalError error) {
	entry := log.WithFields(logrus.Fields{
		"status": statusCode,
		"path":   c.Request.URL.Path,
	})
	if internalError != nil {
		entry.WithError(internalError).Errorf("Handler error: %s", publicMsg)
	} else {
		entry.Infof("Handler response: %s", publicMsg)
	}

	if statusCode >= http.StatusInternalServerError && publicMsg == "" {
		publicMsg = InternalErrorMessage
	}
	c.AbortWithStatusJSON(statusCode, gin.H{"error": publicMsg})
}
