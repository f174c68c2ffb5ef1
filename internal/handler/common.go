package handler

import (
	"errors"
	"net/http"

	"erp/internal/apperror"
	"erp/internal/logger"
	"erp/internal/service"
	"erp/pkg/pagination"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// handlerLog reads the global logger at call time.
func handlerLog() *zerolog.Logger {
	l := logger.WithComponent("handler")
	return &l
}

// respondError translates a service error into the response envelope.
// Unexpected errors keep their message out of release-mode responses.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	message := err.Error()

	var details map[string]interface{}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		if appErr.Field != "" || len(appErr.Details) > 0 {
			details = make(map[string]interface{}, len(appErr.Details)+1)
			for k, v := range appErr.Details {
				details[k] = v
			}
			if appErr.Field != "" {
				details["field"] = appErr.Field
			}
		}
	}

	if status >= http.StatusInternalServerError {
		handlerLog().Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("request failed")
		if gin.Mode() == gin.ReleaseMode {
			message = "Internal server error"
		}
	}

	if details != nil {
		c.JSON(status, response.ErrorWithDetails(status, message, details))
		return
	}
	c.JSON(status, response.Error(status, message))
}

// bindJSON decodes the body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

// listQuery reads the shared search/date/pagination parameters.
func listQuery(c *gin.Context) service.ListQuery {
	p := pagination.Parse(c)
	return service.ListQuery{
		Search:     c.Query("search"),
		DateRange:  c.Query("date_range"),
		CustomDate: c.Query("custom_date"),
		Page:       p.Page,
		Limit:      p.Limit,
	}
}

func respondPage(c *gin.Context, items interface{}, total int64, page, limit int) {
	p := pagination.Normalize(page, limit)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages(total),
	}))
}
