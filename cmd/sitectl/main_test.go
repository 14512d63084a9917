package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-site/pkg/query"
	"github.com/tendant/simple-site/pkg/siteclient"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/api"
	"github.com/tendant/simple-site/pkg/sitecontent/cache"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/memory"
	"github.com/tendant/simple-site/pkg/sitecontent/seed"
)

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "web", "seed", "migrate"}, names)
}

func TestRemoteSeed(t *testing.T) {
	ctx := context.Background()
	svc, err := sitecontent.New(
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithCache(cache.NewMemory()),
	)
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(svc, api.RouterOptions{}))
	defer srv.Close()

	qc := query.New()
	defer qc.Close()
	w := newRemoteWriter(siteclient.New(srv.URL), qc)
	opts := seed.Options{OnlyIfEmpty: true}

	sum, err := seed.Apply(ctx, w, seed.Default(), opts)
	require.NoError(t, err)
	assert.False(t, sum.Skipped)
	assert.Equal(t, 6, sum.Features)

	sum, err = seed.Apply(ctx, w, seed.Default(), opts)
	require.NoError(t, err)
	assert.True(t, sum.Skipped)

	features, err := svc.ListFeatures(ctx, "", sitecontent.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, features.Items, 6)
}
