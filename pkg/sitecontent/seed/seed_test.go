package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/cache"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/memory"
)

func newService(t *testing.T) sitecontent.Service {
	t.Helper()
	svc, err := sitecontent.New(
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithCache(cache.NewMemory()),
	)
	require.NoError(t, err)
	return svc
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.ErrorIs(t, Data{}.Validate(), ErrEmpty)
}

func TestApplyDefault(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	sum, err := Apply(ctx, svc, Default(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Features)
	assert.Equal(t, 4, sum.Testimonials)
	assert.Equal(t, 4, sum.ProcessSteps)
	assert.Equal(t, 1, sum.Specifications)
	assert.Equal(t, 3, sum.Navigation)
	assert.Equal(t, 3, sum.Footer)

	hero, err := svc.GetHero(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Atlas: Where Code Meets Motion", hero.Title)

	sensors, err := svc.ListFeatures(ctx, "sensors", sitecontent.ListOptions{})
	require.NoError(t, err)
	require.Len(t, sensors.Items, 1)
	assert.Equal(t, "Spatial Awareness", sensors.Items[0].Title)

	nav, err := svc.ListNavigation(ctx, "", sitecontent.ListOptions{})
	require.NoError(t, err)
	require.Len(t, nav.Items, 3)
	assert.Equal(t, "Home", nav.Items[0].Label)
	assert.Equal(t, "_self", nav.Items[0].Target)

	testimonials, err := svc.ListTestimonials(ctx, 0, sitecontent.ListOptions{})
	require.NoError(t, err)
	for _, tm := range testimonials.Items {
		assert.Equal(t, 5, tm.Rating)
	}
}

func TestApplyOnlyIfEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := Apply(ctx, svc, Default(), Options{OnlyIfEmpty: true})
	require.NoError(t, err)

	sum, err := Apply(ctx, svc, Default(), Options{OnlyIfEmpty: true})
	require.NoError(t, err)
	assert.True(t, sum.Skipped)

	features, err := svc.ListFeatures(ctx, "", sitecontent.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, features.Items, 6)
}

func TestApplyStopsOnInvalidRecord(t *testing.T) {
	data := Default()
	data.Features[2].Title = ""

	sum, err := Apply(context.Background(), newService(t), data, Options{})
	require.Error(t, err)
	assert.Equal(t, sitecontent.KindValidation, sitecontent.KindOf(err))
	assert.Equal(t, 2, sum.Features)
}
