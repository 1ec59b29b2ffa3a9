package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByIDRequestValid(t *testing.T) {
	assert.True(t, (&ByIDRequest{ID: "6f1c1c52-8f7a-4b0e-9a53-3f0f8f3c1f10"}).Valid())
	assert.False(t, (&ByIDRequest{ID: "not-a-uuid"}).Valid())
	assert.False(t, (&ByIDRequest{}).Valid())
}

func TestListParamsNormalize(t *testing.T) {
	p := ListParams{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, "DESC", p.SortOrder)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, PageSize: 500, SortOrder: "asc"}
	p.Normalize()
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, "ASC", p.SortOrder)
	assert.Equal(t, 200, p.Offset())
}
