package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/sqlite"
)

func openRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func doc(c sitecontent.Collection, order int, created time.Time, attrs map[string]string) *sitecontent.Document {
	return &sitecontent.Document{
		Collection: c,
		ID:         uuid.New(),
		IsActive:   true,
		Order:      order,
		Attrs:      attrs,
		Body:       []byte(`{"title":"x"}`),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	d := doc(sitecontent.CollectionFeatures, 3, now, map[string]string{"category": "movement"})
	require.NoError(t, repo.Insert(ctx, d))

	got, err := repo.Get(ctx, sitecontent.CollectionFeatures, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, 3, got.Order)
	assert.True(t, got.IsActive)
	assert.Equal(t, "movement", got.Attrs["category"])
	assert.JSONEq(t, `{"title":"x"}`, string(got.Body))
	assert.True(t, got.CreatedAt.Equal(now))

	got.IsActive = false
	got.UpdatedAt = now.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, sitecontent.CollectionFeatures, d.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	_, err = repo.Get(ctx, sitecontent.CollectionFeatures, uuid.New())
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, doc(sitecontent.CollectionFeatures, 0, now, nil)), sitecontent.ErrNotFound)
}

func TestSQLiteRepository_FindOrderAndFilters(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b := doc(sitecontent.CollectionFeatures, 2, base, map[string]string{"category": "sensors"})
	a := doc(sitecontent.CollectionFeatures, 1, base, map[string]string{"category": "sensors"})
	c := doc(sitecontent.CollectionFeatures, 0, base, map[string]string{"category": "security"})
	off := doc(sitecontent.CollectionFeatures, 0, base, map[string]string{"category": "sensors"})
	off.IsActive = false
	for _, d := range []*sitecontent.Document{b, a, c, off} {
		require.NoError(t, repo.Insert(ctx, d))
	}

	docs, err := repo.Find(ctx, sitecontent.Query{
		Collection: sitecontent.CollectionFeatures,
		Filters:    map[string]string{"category": "sensors"},
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a.ID, docs[0].ID)
	assert.Equal(t, b.ID, docs[1].ID)

	limited, err := repo.Find(ctx, sitecontent.Query{Collection: sitecontent.CollectionFeatures, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRepository_UniqueNewsletterEmail(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Insert(ctx, doc(sitecontent.CollectionNewsletterSignups, 0, now, map[string]string{"email": "a@example.com"})))
	err := repo.Insert(ctx, doc(sitecontent.CollectionNewsletterSignups, 0, now, map[string]string{"email": "a@example.com"}))
	assert.ErrorIs(t, err, sitecontent.ErrDuplicate)
}
