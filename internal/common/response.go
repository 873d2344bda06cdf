// File: internal/common/response.go
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const statusSuccess = "success"

// SuccessResponse is the envelope for every non-error JSON body.
// Pagination is only present on list endpoints.
type SuccessResponse struct {
	Status     string      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// RequestLogger returns the request scoped logger installed by the logging
// middleware, or the global logger outside of a request.
func RequestLogger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}

// RespondWithError aborts the request with err rendered as an APIError.
// Errors that are not APIErrors are logged and reported as a generic 500.
func RespondWithError(c *gin.Context, err error) {
	apiErr, ok := IsAPIError(err)
	if !ok {
		RequestLogger(c).Error("Unhandled internal error", zap.String("path", c.FullPath()), zap.Error(err))
		apiErr = ErrInternalServer
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

func respond(c *gin.Context, code int, body SuccessResponse) {
	body.Status = statusSuccess
	c.JSON(code, body)
}

// RespondSuccess sends data with an arbitrary status code.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	respond(c, statusCode, SuccessResponse{Message: message, Data: data})
}

func RespondOK(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, SuccessResponse{Message: message, Data: data})
}

func RespondCreated(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, SuccessResponse{Message: message, Data: data})
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondPaginated sends one page of a list. An empty page is rendered as []
// rather than being omitted.
func RespondPaginated(c *gin.Context, message string, data interface{}, pagination *Pagination) {
	if data == nil {
		data = []struct{}{}
	}
	respond(c, http.StatusOK, SuccessResponse{Message: message, Data: data, Pagination: pagination})
}
