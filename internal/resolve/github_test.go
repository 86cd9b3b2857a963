package resolve

import (
	"context"
	"testing"

	"github.com/google/go-github/v59/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mdklatt/idea-plugin-repo/internal/config"
)

func TestGetOwnerRepo(t *testing.T) {
	owner, repo := getOwnerRepo("owner/repo")
	require.Equal(t, "owner", owner)
	require.Equal(t, "repo", repo)

	owner, repo = getOwnerRepo("no-slash")
	require.Empty(t, owner)
	require.Empty(t, repo)
}

func TestListReleases(t *testing.T) {
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetReposReleasesByOwnerByRepo,
			[]*github.RepositoryRelease{
				{Draft: github.Bool(false), TagName: github.String("v1.0.0"), Assets: []*github.ReleaseAsset{{}}},
				{Draft: github.Bool(false), TagName: github.String("v1.0.1"), Assets: []*github.ReleaseAsset{{}}},
				{Draft: github.Bool(true), TagName: github.String("v2.0.0-beta"), Assets: []*github.ReleaseAsset{{}}},
				{Draft: github.Bool(false), TagName: github.String("not-a-version"), Assets: []*github.ReleaseAsset{{}}},
				{Draft: github.Bool(false), TagName: github.String("v2.0.0")},
			},
		),
	)
	r := New(github.NewClient(mockedHTTPClient), logrus.New(), config.ResolverConfig{})
	releases, err := r.listReleases(context.Background(), "owner/repo")
	require.NoError(t, err)
	require.Len(t, releases, 2)
	foundTags := make([]string, len(releases))
	for i, release := range releases {
		foundTags[i] = release.GetTagName()
	}
	require.ElementsMatch(t, []string{"v1.0.0", "v1.0.1"}, foundTags)
}

func TestListReleasesCached(t *testing.T) {
	// the mock serves exactly one response, so the second lookup must come
	// from the per-repo cache
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetReposReleasesByOwnerByRepo,
			[]*github.RepositoryRelease{
				{Draft: github.Bool(false), TagName: github.String("v1.0.0"), Assets: []*github.ReleaseAsset{{}}},
			},
		),
	)
	r := New(github.NewClient(mockedHTTPClient), logrus.New(), config.ResolverConfig{})
	first, err := r.listReleases(context.Background(), "owner/repo")
	require.NoError(t, err)
	second, err := r.listReleases(context.Background(), "owner/repo")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestListReleasesInvalidRepo(t *testing.T) {
	r := New(github.NewClient(nil), logrus.New(), config.ResolverConfig{})
	_, err := r.listReleases(context.Background(), "no-slash")
	require.ErrorContains(t, err, "invalid repository name")
}

func TestLatestRelease(t *testing.T) {
	releases := []*github.RepositoryRelease{
		{TagName: github.String("v1.0.0")},
		{TagName: github.String("v3.1.0")},
		{TagName: github.String("v4.0.0"), Prerelease: github.Bool(true)},
		{TagName: github.String("v4.0.0-rc.1")},
		{TagName: github.String("v2.0.0")},
	}
	release, version, err := latestRelease(releases)
	require.NoError(t, err)
	require.Equal(t, "v3.1.0", release.GetTagName())
	require.Equal(t, "3.1.0", version.String())
}

func TestLatestReleaseNoneStable(t *testing.T) {
	releases := []*github.RepositoryRelease{
		{TagName: github.String("v1.0.0-rc.1")},
	}
	_, _, err := latestRelease(releases)
	require.ErrorContains(t, err, "no stable release found")
}

func TestFindAsset(t *testing.T) {
	release := &github.RepositoryRelease{Assets: []*github.ReleaseAsset{
		{Name: github.String("checksums.txt")},
		{Name: github.String("plugin-1.0.0.zip")},
	}}
	require.NotNil(t, findAsset(release, "plugin-1.0.0.zip"))
	require.Nil(t, findAsset(release, "plugin-2.0.0.zip"))
}
