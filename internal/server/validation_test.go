package server

import (
	"errors"
	"strings"
	"testing"

	"sketch-rooms/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	name, err := validateName("  Ada   Lovelace ")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	for _, bad := range []string{"", "   ", strings.Repeat("a", maxNameLength+1), "<script>", "émile"} {
		_, err := validateName(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateCategory(t *testing.T) {
	category, err := validateCategory(" Animals ")
	require.NoError(t, err)
	assert.Equal(t, "animals", category)

	category, err = validateCategory("")
	require.NoError(t, err)
	assert.Empty(t, category)

	_, err = validateCategory("hot dogs")
	assert.Error(t, err)
	_, err = validateCategory(strings.Repeat("x", maxCategoryLength+1))
	assert.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "username is required", userMessage(invalidInput(errors.New("username is required"))))
	assert.Equal(t, "That room does not exist.", userMessage(game.ErrRoomNotFound))
	assert.Equal(t, "Only the room owner can do that.", userMessage(ErrNotAuthorized))
	assert.Equal(t, "You can't do that right now.", userMessage(errors.Join(game.ErrIllegalTransition, errors.New("detail"))))
	assert.Equal(t, "Something went wrong.", userMessage(errors.New("boom")))
	assert.Empty(t, userMessage(nil))
	assert.Nil(t, invalidInput(nil))

	assert.True(t, retryable(ErrRoomBusy))
	assert.False(t, retryable(game.ErrStaleTimer))
}

func TestPaginate(t *testing.T) {
	p := paginate("/admin/rooms", pageQuery{Page: 2, PerPage: 10}, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, 1, p.PrevPage)
	assert.Equal(t, 3, p.NextPage)
	start, end := pageBounds(p)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	p = paginate("/admin/rooms", pageQuery{Page: 9, PerPage: 10}, 25)
	assert.Equal(t, 3, p.Page, "page is clamped")
	start, end = pageBounds(p)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	p = paginate("/admin/rooms", pageQuery{Page: 1, PerPage: 10}, 0)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasNext)
	start, end = pageBounds(p)
	assert.Zero(t, start)
	assert.Zero(t, end)
}
