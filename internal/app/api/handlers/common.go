package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/response"
)

// writeError maps service error kinds to HTTP statuses and the response
// envelope. Anything unrecognized is reported as an internal failure.
func writeError(c *gin.Context, err error) {
	switch {
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
	case apperr.IsConflict(err):
		c.JSON(http.StatusConflict, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, msg))
}

// paginationFromQuery reads the from/size query parameters with defaults.
func paginationFromQuery(c *gin.Context) (from, size int, ok bool) {
	from = 0
	if v := c.Query("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "invalid from")
			return 0, 0, false
		}
		from = n
	}
	size = 10
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			badRequest(c, "invalid size")
			return 0, 0, false
		}
		size = n
	}
	return from, size, true
}
