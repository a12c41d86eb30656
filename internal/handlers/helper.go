package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ParseStringIDParam reads a non-empty path parameter, answering 400 itself when missing
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parseUintQueryPtr returns nil when the query parameter is absent; ok is false after a 400
func parseUintQueryPtr(c *gin.Context, param string) (value *uint, ok bool) {
	raw := c.Query(param)
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid " + param, Details: err.Error()})
		return nil, false
	}
	v := uint(parsed)
	return &v, true
}

// parseTimeQueryPtr accepts RFC 3339 timestamps or plain dates
func parseTimeQueryPtr(c *gin.Context, param string) (value *time.Time, ok bool) {
	raw := c.Query(param)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: "Invalid " + param,
		Details: "expected RFC 3339 timestamp or YYYY-MM-DD date",
	})
	return nil, false
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func sendSpreadsheet(c *gin.Context, fileName string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
