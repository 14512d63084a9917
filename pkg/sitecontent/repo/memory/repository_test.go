package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/memory"
)

func newDoc(c sitecontent.Collection, order int, created time.Time, attrs map[string]string) *sitecontent.Document {
	return &sitecontent.Document{
		Collection: c,
		ID:         uuid.New(),
		IsActive:   true,
		Order:      order,
		Attrs:      attrs,
		Body:       []byte(`{}`),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestMemoryRepository_InsertGetUpdate(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	doc := newDoc(sitecontent.CollectionFeatures, 1, now, map[string]string{"category": "sensors"})
	require.NoError(t, repo.Insert(ctx, doc))

	t.Run("Get returns a copy", func(t *testing.T) {
		got, err := repo.Get(ctx, sitecontent.CollectionFeatures, doc.ID)
		require.NoError(t, err)
		got.Attrs["category"] = "changed"

		again, err := repo.Get(ctx, sitecontent.CollectionFeatures, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "sensors", again.Attrs["category"])
	})

	t.Run("Get in another collection is not found", func(t *testing.T) {
		_, err := repo.Get(ctx, sitecontent.CollectionTestimonials, doc.ID)
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	})

	t.Run("Update keeps created_at", func(t *testing.T) {
		updated := doc.Clone()
		updated.IsActive = false
		updated.CreatedAt = now.Add(time.Hour)
		updated.UpdatedAt = now.Add(time.Minute)
		require.NoError(t, repo.Update(ctx, updated))

		got, err := repo.Get(ctx, sitecontent.CollectionFeatures, doc.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.True(t, got.CreatedAt.Equal(now))
		assert.True(t, got.UpdatedAt.Equal(now.Add(time.Minute)))
	})

	t.Run("Update missing", func(t *testing.T) {
		err := repo.Update(ctx, newDoc(sitecontent.CollectionFeatures, 0, now, nil))
		assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	})
}

func TestMemoryRepository_Find(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	second := newDoc(sitecontent.CollectionFeatures, 2, base, map[string]string{"category": "sensors"})
	firstLater := newDoc(sitecontent.CollectionFeatures, 1, base.Add(time.Minute), map[string]string{"category": "sensors"})
	firstEarlier := newDoc(sitecontent.CollectionFeatures, 1, base, map[string]string{"category": "sensors"})
	other := newDoc(sitecontent.CollectionFeatures, 0, base, map[string]string{"category": "security"})
	inactive := newDoc(sitecontent.CollectionFeatures, 0, base, map[string]string{"category": "sensors"})
	inactive.IsActive = false

	for _, d := range []*sitecontent.Document{second, firstLater, firstEarlier, other, inactive} {
		require.NoError(t, repo.Insert(ctx, d))
	}

	docs, err := repo.Find(ctx, sitecontent.Query{
		Collection: sitecontent.CollectionFeatures,
		Filters:    map[string]string{"category": "sensors"},
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, firstEarlier.ID, docs[0].ID)
	assert.Equal(t, firstLater.ID, docs[1].ID)
	assert.Equal(t, second.ID, docs[2].ID)

	all, err := repo.Find(ctx, sitecontent.Query{Collection: sitecontent.CollectionFeatures})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	limited, err := repo.Find(ctx, sitecontent.Query{Collection: sitecontent.CollectionFeatures, ActiveOnly: true, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	newest, err := repo.Find(ctx, sitecontent.Query{
		Collection: sitecontent.CollectionFeatures,
		ActiveOnly: true,
		Sort:       sitecontent.SortNewest,
	})
	require.NoError(t, err)
	assert.Equal(t, firstLater.ID, newest[0].ID)
}

func TestMemoryRepository_UniqueNewsletterEmail(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	first := newDoc(sitecontent.CollectionNewsletterSignups, 0, now, map[string]string{"email": "a@example.com"})
	require.NoError(t, repo.Insert(ctx, first))

	dup := newDoc(sitecontent.CollectionNewsletterSignups, 0, now, map[string]string{"email": "a@example.com"})
	assert.ErrorIs(t, repo.Insert(ctx, dup), sitecontent.ErrDuplicate)

	// contact forms may repeat an email
	c1 := newDoc(sitecontent.CollectionContactForms, 0, now, map[string]string{"email": "a@example.com"})
	c2 := newDoc(sitecontent.CollectionContactForms, 0, now, map[string]string{"email": "a@example.com"})
	require.NoError(t, repo.Insert(ctx, c1))
	require.NoError(t, repo.Insert(ctx, c2))
}
