package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/library/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	for _, value := range []string{"abc", "-1", "0", ""} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: value}}

		id, ok := parseIDParam(c, "id")

		assert.False(t, ok, value)
		assert.Equal(t, uint(0), id)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid id")
	}
}

func TestParseOptionalQueryID(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)

		id, ok := parseOptionalQueryID(c, "memberId")
		assert.True(t, ok)
		assert.Nil(t, id)
	})

	t.Run("valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/?memberId=7", nil)

		id, ok := parseOptionalQueryID(c, "memberId")
		assert.True(t, ok)
		if assert.NotNil(t, id) {
			assert.Equal(t, uint(7), *id)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/?memberId=x", nil)

		_, ok := parseOptionalQueryID(c, "memberId")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid memberId")
	})
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, 20},
		{"?page=3&pageSize=5", 3, 5},
		{"?page=-1&pageSize=1000", 1, 100},
		{"?page=abc", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tc.query, nil)

		page, pageSize := parsePage(c)
		assert.Equal(t, tc.page, page, tc.query)
		assert.Equal(t, tc.pageSize, pageSize, tc.query)
	}
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		conflict int
		status   int
		body     string
	}{
		{"not found", apperr.NotFound("Book not found"), http.StatusConflict, http.StatusNotFound, `{"error":"Book not found","code":"NOT_FOUND"}`},
		{"validation", apperr.Validation("Title is required"), http.StatusConflict, http.StatusBadRequest, `{"error":"Title is required","code":"VALIDATION"}`},
		{"conflict on lending", apperr.Conflict("Book is already issued"), http.StatusBadRequest, http.StatusBadRequest, `{"error":"Book is already issued","code":"CONFLICT"}`},
		{"conflict on delete", apperr.Conflict("Book has borrow history and cannot be deleted"), http.StatusConflict, http.StatusConflict, `{"error":"Book has borrow history and cannot be deleted","code":"CONFLICT"}`},
		{"forbidden", apperr.Forbidden("Access denied"), http.StatusConflict, http.StatusForbidden, `{"error":"Access denied","code":"FORBIDDEN"}`},
		{"unauthorized", apperr.Unauthorized("Invalid credentials"), http.StatusConflict, http.StatusUnauthorized, `{"error":"Invalid credentials","code":"UNAUTHORIZED"}`},
		{"internal", apperr.Internal(errors.New("no such table: books"), "list books"), http.StatusConflict, http.StatusInternalServerError, `{"error":"internal server error","code":"INTERNAL"}`},
		{"unclassified", errors.New("boom"), http.StatusConflict, http.StatusInternalServerError, `{"error":"internal server error","code":"INTERNAL"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err, tc.conflict)

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestRespondErrorRecordsInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, apperr.Internal(errors.New("disk I/O error"), "issue book"), http.StatusBadRequest)

	if assert.Len(t, c.Errors, 1) {
		assert.Contains(t, c.Errors.Last().Error(), "disk I/O error")
	}
	assert.NotContains(t, w.Body.String(), "disk")
}
