package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/utils"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, err)
	return w.Code
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{utils.ErrorRecordNotFound, http.StatusNotFound},
		{utils.NewConflictError("due REC-1 is already paid"), http.StatusBadRequest},
		{utils.NewValidationError("amount must be positive"), http.StatusBadRequest},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(t, tc.err); got != tc.want {
			t.Fatalf("%v -> %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestQueryHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?member_id=4&from_date=2026-01-31&paid=true", nil)

	if v, ok := queryInt(c, "member_id"); !ok || v == nil || *v != 4 {
		t.Fatalf("queryInt: %v %v", v, ok)
	}
	if v, ok := queryDate(c, "from_date"); !ok || v == nil || v.Format("2006-01-02") != "2026-01-31" {
		t.Fatalf("queryDate: %v %v", v, ok)
	}
	if v, ok := queryBool(c, "paid"); !ok || v == nil || !*v {
		t.Fatalf("queryBool: %v %v", v, ok)
	}
	if v, ok := queryInt(c, "missing"); !ok || v != nil {
		t.Fatal("missing param should be nil and ok")
	}
}

func TestQueryHelpersRejectMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query string
		call  func(c *gin.Context) bool
	}{
		{"member_id=x", func(c *gin.Context) bool { _, ok := queryInt(c, "member_id"); return ok }},
		{"from_date=31-01-2026", func(c *gin.Context) bool { _, ok := queryDate(c, "from_date"); return ok }},
		{"paid=maybe", func(c *gin.Context) bool { _, ok := queryBool(c, "paid"); return ok }},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		if tc.call(c) {
			t.Fatalf("%s: malformed value accepted", tc.query)
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", tc.query, w.Code)
		}
	}
}

func TestRespondBindErrorOnMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments",
		strings.NewReader(`{"amount": "not a number"`))
	c.Request.Header.Set("Content-Type", "application/json")

	var body struct {
		Amount float64 `json:"amount"`
	}
	err := c.ShouldBindJSON(&body)
	if err == nil {
		t.Fatal("expected a bind error")
	}
	respondBindError(c, err)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}
