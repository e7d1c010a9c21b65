package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aircnc/aircnc-server/internal/store"
	"github.com/aircnc/aircnc-server/pkg/apperrors"
)

func TestUpsertThenGet(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "x@example.com", store.Document{"name": "X", "role": "guest"})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.UpsertedCount)

	second, err := svc.Upsert(ctx, "x@example.com", store.Document{"name": "X2", "email": "spoof@example.com"})
	require.NoError(t, err)
	require.Equal(t, int64(1), second.MatchedCount)
	require.Equal(t, int64(0), second.UpsertedCount)

	got, err := svc.Get(ctx, "x@example.com")
	require.NoError(t, err)
	require.Equal(t, "X2", got["name"])
	require.Equal(t, "x@example.com", got["email"])
	require.NotContains(t, got, "role")
}

func TestUpsertIsIdempotent(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	ctx := context.Background()
	doc := store.Document{"name": "Same"}

	_, err := svc.Upsert(ctx, "same@example.com", doc)
	require.NoError(t, err)
	again, err := svc.Upsert(ctx, "same@example.com", doc)
	require.NoError(t, err)
	require.Equal(t, int64(0), again.ModifiedCount)
	require.NotContains(t, doc, "email", "caller document is not mutated")
}

func TestGetMissingIsNil(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	got, err := svc.Get(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestInvalidEmail(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	_, err := svc.Upsert(context.Background(), "not-an-email", store.Document{})
	require.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = svc.Get(context.Background(), "")
	require.True(t, apperrors.Is(err, apperrors.KindValidation))
}
