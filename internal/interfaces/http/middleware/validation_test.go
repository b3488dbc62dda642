package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/inventory/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	SKU string `json:"sku" binding:"required"`
}

type testRequest struct {
	OrderID string     `json:"order_id" binding:"required,notblank"`
	Note    string     `json:"note" binding:"omitempty,notblank"`
	Lines   []testLine `json:"lines" binding:"required,min=1,dive"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req testRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postJSON(router http.Handler, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports fields by json name", func(t *testing.T) {
		w, resp := postJSON(router, `{"order_id": "   ", "lines": []}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
		assert.ElementsMatch(t, []dto.ValidationDetail{
			{Field: "order_id", Message: "This field cannot be blank"},
			{Field: "lines", Message: "Must contain at least 1 items"},
		}, resp.Error.Details)
	})

	t.Run("dives into lines", func(t *testing.T) {
		_, resp := postJSON(router, `{"order_id": "o-1", "lines": [{"sku": ""}]}`)

		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "sku", resp.Error.Details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := postJSON(router, `{"order_id": `)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, resp := postJSON(router, `{"order_id": 12, "lines": [{"sku": "a"}]}`)

		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "order_id")
	})

	t.Run("valid request passes", func(t *testing.T) {
		w, resp := postJSON(router, `{"order_id": "o-1", "lines": [{"sku": "a"}]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
	})
}
