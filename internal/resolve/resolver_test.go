package resolve

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mdklatt/idea-plugin-repo/internal/config"
)

func TestResolvePinned(t *testing.T) {
	spec := &config.PluginSpec{
		ID:       "dev.mdklatt.idea-test",
		Name:     "Test Plugin",
		Repo:     "mdklatt/idea-test-plugin",
		Artifact: "idea-test-plugin",
		Pin:      "2.0.0",
	}
	// no GitHub client: a pinned spec must resolve without any remote call
	r := New(nil, logrus.New(), config.ResolverConfig{})
	rec, err := r.Resolve(context.Background(), spec)
	require.NoError(t, err)
	require.True(t, rec.Pinned)
	require.Equal(t, "dev.mdklatt.idea-test", rec.ID)
	require.Equal(t, "2.0.0", rec.Version)
	require.Equal(t, "https://github.com/mdklatt/idea-test-plugin", rec.RepoURL)
	require.Equal(t,
		"https://github.com/mdklatt/idea-test-plugin/releases/download/v2.0.0/idea-test-plugin-2.0.0.zip",
		rec.DownloadURL)
	require.Empty(t, rec.Checksum)
}

func TestResolve(t *testing.T) {
	archive := buildPluginArchive(t, "idea-test-plugin", testPluginXML)
	ts := getArchiveServer(t, archive, 0)
	defer ts.Close()

	releasedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetReposReleasesByOwnerByRepo,
			[]*github.RepositoryRelease{
				{
					Draft:       github.Bool(false),
					TagName:     github.String("v1.2.3"),
					PublishedAt: &github.Timestamp{Time: releasedAt},
					Assets: []*github.ReleaseAsset{
						{Name: github.String("idea-test-plugin-1.2.3.zip"), BrowserDownloadURL: github.String(ts.URL)},
					},
				},
				{
					Draft:   github.Bool(false),
					TagName: github.String("v1.0.0"),
					Assets:  []*github.ReleaseAsset{{Name: github.String("idea-test-plugin-1.0.0.zip")}},
				},
			},
		),
	)
	spec := &config.PluginSpec{
		ID:       "configured-id",
		Name:     "Configured Name",
		Repo:     "mdklatt/idea-test-plugin",
		Artifact: "idea-test-plugin",
	}
	r := New(github.NewClient(mockedHTTPClient), logrus.New(), config.ResolverConfig{})

	rec, err := r.Resolve(context.Background(), spec)
	require.NoError(t, err)
	// the archive descriptor is authoritative over the configured fields
	require.Equal(t, "dev.mdklatt.idea-test", rec.ID)
	require.Equal(t, "Test Plugin", rec.Name)
	require.Equal(t, "1.2.3", rec.Version)
	require.Equal(t, "A plugin for testing.", rec.Description)
	require.Equal(t, ts.URL, rec.DownloadURL)
	require.Equal(t, releasedAt, rec.ReleasedAt)
	require.Equal(t, "223.0", rec.SinceBuild)
	require.Equal(t, "241.*", rec.UntilBuild)
	require.NotEmpty(t, rec.Checksum)
	require.Equal(t, int64(len(archive)), rec.Size)
	require.False(t, rec.Pinned)
}

func TestResolveMissingAsset(t *testing.T) {
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetReposReleasesByOwnerByRepo,
			[]*github.RepositoryRelease{
				{
					Draft:   github.Bool(false),
					TagName: github.String("v1.2.3"),
					Assets:  []*github.ReleaseAsset{{Name: github.String("unrelated.txt")}},
				},
			},
		),
	)
	spec := &config.PluginSpec{ID: "a", Repo: "mdklatt/idea-test-plugin", Artifact: "idea-test-plugin"}
	r := New(github.NewClient(mockedHTTPClient), logrus.New(), config.ResolverConfig{})
	_, err := r.Resolve(context.Background(), spec)
	require.ErrorContains(t, err, `no asset "idea-test-plugin-1.2.3.zip"`)
}

func TestResolveAllPartialFailure(t *testing.T) {
	// the first spec fails its remote lookup, the second is pinned and must
	// still resolve
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatchHandler(
			mock.GetReposReleasesByOwnerByRepo,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				mock.WriteError(w, http.StatusNotFound, "not found")
			}),
		),
	)
	specs := []*config.PluginSpec{
		{ID: "a", Name: "A", Repo: "mdklatt/gone-plugin", Artifact: "gone-plugin"},
		{ID: "b", Name: "B", Repo: "mdklatt/pinned-plugin", Artifact: "pinned-plugin", Pin: "2.0.0"},
	}
	r := New(github.NewClient(mockedHTTPClient), logrus.New(), config.ResolverConfig{Concurrency: 2})

	results := r.ResolveAll(context.Background(), specs)
	require.Len(t, results, 2)
	// results stay in input order regardless of completion order
	require.Same(t, specs[0], results[0].Spec)
	require.Same(t, specs[1], results[1].Spec)
	require.ErrorContains(t, results[0].Err, "failed to list releases")
	require.Nil(t, results[0].Record)
	require.NoError(t, results[1].Err)
	require.Equal(t, "2.0.0", results[1].Record.Version)
}
