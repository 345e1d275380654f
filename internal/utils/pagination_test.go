package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationFromQuery(query string) PaginationParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/plugins?"+query, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParams(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 1, Limit: 0}, paginationFromQuery(""))
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10}, paginationFromQuery("page=3&limit=10"))
	assert.Equal(t, PaginationParams{Page: 1, Limit: MaxPageLimit}, paginationFromQuery("page=-2&limit=1000"))
	assert.Equal(t, PaginationParams{Page: 1, Limit: 0}, paginationFromQuery("page=abc&limit=-5"))
}

func TestCreatePaginationResult(t *testing.T) {
	paged := CreatePaginationResult(nil, 45, PaginationParams{Page: 2, Limit: 20})
	assert.Equal(t, 3, paged.TotalPages)
	assert.Equal(t, 2, paged.Page)

	all := CreatePaginationResult(nil, 45, PaginationParams{Page: 4})
	assert.Equal(t, 1, all.TotalPages)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 45, all.Limit)

	empty := CreatePaginationResult(nil, 0, PaginationParams{Page: 1})
	assert.Equal(t, 1, empty.TotalPages)
}
