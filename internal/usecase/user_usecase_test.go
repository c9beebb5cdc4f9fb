package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardrobe/internal/domain/model"
	"wardrobe/internal/usecase"
)

func newUserUsecase(s *fakeStore) *usecase.UserUsecase {
	return usecase.NewUserUsecase(&fakeUsers{s: s}, &fakeItems{s: s})
}

func TestGetUserDetails_NotFound(t *testing.T) {
	s := newFakeStore()
	u := newUserUsecase(s)

	_, err := u.GetUserDetails(context.Background(), 42)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestGetUserDetails_Success(t *testing.T) {
	s := newFakeStore()
	s.users[1] = &model.User{ID: 1, FirstName: "Hanako", LastName: "Suzuki", Email: "hanako@example.com"}
	u := newUserUsecase(s)

	out, err := u.GetUserDetails(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "Hanako", out.FirstName)
	assert.Equal(t, "hanako@example.com", out.Email)
}

func TestAddFavorite_InactiveItemIsNotFound(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", false, map[string]int64{"M": 5})
	u := newUserUsecase(s)

	err := u.AddFavorite(context.Background(), 1, item.ID)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

// 2回追加しても1件のまま
func TestAddFavorite_Idempotent(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", true, map[string]int64{"M": 5})
	u := newUserUsecase(s)
	ctx := context.Background()

	require.NoError(t, u.AddFavorite(ctx, 1, item.ID))
	require.NoError(t, u.AddFavorite(ctx, 1, item.ID))

	items, err := u.ListFavorites(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRemoveFavorite_MissingIsNoop(t *testing.T) {
	s := newFakeStore()
	u := newUserUsecase(s)

	err := u.RemoveFavorite(context.Background(), 1, 999)

	assert.NoError(t, err)
}

// 非公開になった商品はお気に入り一覧に出ない
func TestListFavorites_SkipsRetiredItems(t *testing.T) {
	s := newFakeStore()
	active := s.addItem("Tee", "20", true, map[string]int64{"M": 5})
	retired := s.addItem("Hoodie", "40", true, map[string]int64{"L": 5})
	u := newUserUsecase(s)
	ctx := context.Background()

	require.NoError(t, u.AddFavorite(ctx, 1, active.ID))
	require.NoError(t, u.AddFavorite(ctx, 1, retired.ID))

	stored := s.items[retired.ID]
	stored.IsActive = false
	s.items[retired.ID] = stored

	items, err := u.ListFavorites(ctx, 1)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, active.ID, items[0].ID)
}
