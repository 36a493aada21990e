package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"valuegrade/internal/analyzer"
	"valuegrade/internal/pkg/corp"

	"github.com/gin-gonic/gin"
)

const maxLimit = 100

func getLimitWithDefault(c *gin.Context, defaultValue int) int {
	var err error
	limit := defaultValue
	if c.Query("limit") != "" {
		limit, err = strconv.Atoi(c.Query("limit"))
		if err != nil || limit <= 0 {
			log.Printf("failed to parse limit: %v, using default value: %d", c.Query("limit"), defaultValue)
			return defaultValue
		}
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// errorStatus maps analysis errors to HTTP status codes. Anything not
// recognized came from DART or OpenAI.
func errorStatus(err error) int {
	var ambiguous *corp.AmbiguousError
	switch {
	case errors.Is(err, corp.ErrEmptyQuery),
		errors.Is(err, analyzer.ErrInvalidYear),
		errors.Is(err, analyzer.ErrInvalidReport):
		return http.StatusBadRequest
	case errors.As(err, &ambiguous):
		return http.StatusConflict
	case errors.Is(err, corp.ErrCompanyNotFound),
		errors.Is(err, analyzer.ErrNoFinancialData):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}

	var ambiguous *corp.AmbiguousError
	if errors.As(err, &ambiguous) {
		body["candidates"] = ambiguous.Matches
	}
	return body
}

func candidates(err error) []string {
	var ambiguous *corp.AmbiguousError
	if errors.As(err, &ambiguous) {
		return ambiguous.Matches
	}
	return nil
}
