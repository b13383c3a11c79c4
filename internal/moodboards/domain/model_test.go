package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitions(t *testing.T) {
	assert.True(t, Transitions.Can(StatusDraft, StatusShared))
	assert.True(t, Transitions.Can(StatusShared, StatusChangesRequested))
	assert.True(t, Transitions.Can(StatusChangesRequested, StatusShared))
	assert.False(t, Transitions.Can(StatusDraft, StatusApproved))

	for _, s := range []string{StatusDraft, StatusShared, StatusChangesRequested, StatusApproved} {
		assert.True(t, Transitions.Can(s, StatusArchived), s)
	}
	assert.False(t, Transitions.Can(StatusArchived, StatusDraft))
}

func TestItemsEditable(t *testing.T) {
	assert.True(t, ItemsEditable(StatusDraft))
	assert.True(t, ItemsEditable(StatusChangesRequested))
	assert.False(t, ItemsEditable(StatusShared))
	assert.False(t, ItemsEditable(StatusApproved))
}

func TestCheckOrder(t *testing.T) {
	current := []string{"a", "b", "c"}

	assert.NoError(t, CheckOrder(current, []string{"c", "a", "b"}))
	assert.ErrorIs(t, CheckOrder(current, []string{"a", "b"}), ErrInvalidOrder)
	assert.ErrorIs(t, CheckOrder(current, []string{"a", "a", "b"}), ErrInvalidOrder)
	assert.ErrorIs(t, CheckOrder(current, []string{"a", "b", "z"}), ErrInvalidOrder)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]StatusCount{
		{Status: StatusDraft, Boards: 2, Items: 3, Comments: 0},
		{Status: StatusShared, Boards: 1, Items: 4, Comments: 5},
	})
	assert.Equal(t, 3, s.TotalBoards)
	assert.Equal(t, 7, s.TotalItems)
	assert.Equal(t, 5, s.TotalComments)
	assert.Equal(t, 1, s.PendingApproval)
	assert.Equal(t, 2.33, s.AvgItemsPerBoard)
	assert.Equal(t, 0, s.ByStatus[StatusArchived])
	assert.Len(t, s.ByStatus, 5)

	empty := Summarize(nil)
	assert.Zero(t, empty.AvgItemsPerBoard)
	assert.Equal(t, 0, empty.ByStatus[StatusDraft])
}

func TestCommentable(t *testing.T) {
	assert.True(t, Commentable(StatusShared))
	assert.True(t, Commentable(StatusApproved))
	assert.False(t, Commentable(StatusArchived))
}
