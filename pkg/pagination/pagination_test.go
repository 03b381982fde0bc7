package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewComputesPages(t *testing.T) {
	p := New(2, 10, 35)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, 10, p.Offset())

	p = New(1, 10, 30)
	assert.Equal(t, 3, p.TotalPages)
}

func TestNewDefaults(t *testing.T) {
	p := New(0, 0, 7)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 15, p.PerPage)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 0, p.Offset())
}
