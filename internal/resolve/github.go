package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v59/github"
	"github.com/patrickmn/go-cache"
)

func getOwnerRepo(fullRepo string) (string, string) {
	owner, repo, found := strings.Cut(fullRepo, "/")
	if !found {
		return "", ""
	}
	return owner, repo
}

// listReleases returns the usable releases of a repository: no drafts, only
// valid semver tags, only releases with assets. Listings are memoized per
// repository so specs sharing a repo cost a single API lookup.
func (r *Resolver) listReleases(ctx context.Context, fullRepo string) ([]*github.RepositoryRelease, error) {
	if cached, ok := r.cache.Get(fullRepo); ok {
		return cached.([]*github.RepositoryRelease), nil
	}
	owner, repo := getOwnerRepo(fullRepo)
	if owner == "" {
		return nil, fmt.Errorf("invalid repository name %q", fullRepo)
	}
	ret := make([]*github.RepositoryRelease, 0)
	opts := &github.ListOptions{Page: 1, PerPage: 100}
	for {
		releases, resp, err := r.gh.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}
		for _, release := range releases {
			if release.GetDraft() {
				continue
			}
			if _, err := semver.NewVersion(release.GetTagName()); err != nil {
				continue
			}
			if len(release.Assets) == 0 {
				continue
			}
			ret = append(ret, release)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	r.cache.Set(fullRepo, ret, cache.DefaultExpiration)
	return ret, nil
}

// latestRelease picks the highest stable version from a filtered release list.
func latestRelease(releases []*github.RepositoryRelease) (*github.RepositoryRelease, *semver.Version, error) {
	var best *semver.Version
	var bestRelease *github.RepositoryRelease
	for _, release := range releases {
		if release.GetPrerelease() {
			continue
		}
		version, err := semver.NewVersion(release.GetTagName())
		if err != nil {
			continue
		}
		if version.Prerelease() != "" {
			continue
		}
		if best == nil || version.GreaterThan(best) {
			best = version
			bestRelease = release
		}
	}
	if bestRelease == nil {
		return nil, nil, fmt.Errorf("no stable release found")
	}
	return bestRelease, best, nil
}

func findAsset(release *github.RepositoryRelease, name string) *github.ReleaseAsset {
	for _, asset := range release.Assets {
		if asset.GetName() == name {
			return asset
		}
	}
	return nil
}
