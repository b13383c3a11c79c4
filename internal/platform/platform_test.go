package platform

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	tr := Transitions{
		"draft": {"sent"},
		"sent":  {"paid", "void"},
	}
	assert.True(t, tr.Can("draft", "sent"))
	assert.False(t, tr.Can("draft", "paid"))
	assert.False(t, tr.Can("paid", "draft"))
	assert.True(t, tr.Known("void"))
	assert.True(t, tr.Known("draft"))
	assert.False(t, tr.Known("archived"))
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, int64(1500), LineTotal(3, 500))
	assert.Equal(t, int64(1667), LineTotal(3.3333, 500))
	assert.Equal(t, int64(0), LineTotal(0, 999))
	assert.Equal(t, int64(-250), LineTotal(0.5, -500))
}

func TestApplyBasisPoints(t *testing.T) {
	assert.Equal(t, int64(825), ApplyBasisPoints(10000, 825))
	assert.Equal(t, int64(10000), ApplyBasisPoints(10000, BasisPointsMax))
	assert.Equal(t, int64(1), ApplyBasisPoints(15, 500))
	assert.Equal(t, int64(0), ApplyBasisPoints(10000, 0))
}

func TestNewPublicID(t *testing.T) {
	re := regexp.MustCompile(`^PRJ-\d{5}-\d{4}$`)
	for i := 0; i < 20; i++ {
		id, err := NewPublicID("PRJ")
		require.NoError(t, err)
		assert.Regexp(t, re, id)
	}
}
