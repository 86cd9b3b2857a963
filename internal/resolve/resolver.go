// Package resolve turns configured plugin specs into resolved records by
// querying the GitHub release API and inspecting the released plugin archive.
package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/mdklatt/idea-plugin-repo/internal/config"
	"github.com/mdklatt/idea-plugin-repo/internal/registry"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result pairs a spec with its resolution outcome. Exactly one of Record and
// Err is set.
type Result struct {
	Spec   *config.PluginSpec
	Record *registry.Record
	Err    error
}

type Resolver struct {
	gh          *github.Client
	log         *logrus.Logger
	cache       *cache.Cache
	timeout     time.Duration
	concurrency int
}

func New(gh *github.Client, log *logrus.Logger, cfg config.ResolverConfig) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}
	return &Resolver{
		gh:          gh,
		log:         log,
		cache:       cache.New(5*time.Minute, 10*time.Minute),
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// ResolveAll resolves every spec, at most concurrency lookups in flight.
// Results are returned in spec order; a failed entry never aborts the others.
func (r *Resolver) ResolveAll(ctx context.Context, specs []*config.PluginSpec) []Result {
	results := make([]Result, len(specs))
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			rec, err := r.Resolve(ctx, spec)
			results[i] = Result{Spec: spec, Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Resolve produces a record for one spec. Pinned specs resolve statically
// without any remote call.
func (r *Resolver) Resolve(ctx context.Context, spec *config.PluginSpec) (*registry.Record, error) {
	if spec.Pin != "" {
		r.log.Infof("resolved %s@%s from pin", spec.ID, spec.Pin)
		return resolvePinned(spec), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	releases, err := r.listReleases(ctx, spec.Repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases of %s: %w", spec.Repo, err)
	}
	release, version, err := latestRelease(releases)
	if err != nil {
		return nil, fmt.Errorf("failed to pick a release of %s: %w", spec.Repo, err)
	}

	assetName := fmt.Sprintf("%s-%s.zip", spec.Artifact, version)
	asset := findAsset(release, assetName)
	if asset == nil {
		return nil, fmt.Errorf("release %s of %s has no asset %q", release.GetTagName(), spec.Repo, assetName)
	}

	info, err := fetchArchive(ctx, asset.GetBrowserDownloadURL())
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", assetName, err)
	}

	rec := &registry.Record{
		ID:          spec.ID,
		Name:        spec.Name,
		Version:     version.String(),
		Description: spec.Description,
		DownloadURL: asset.GetBrowserDownloadURL(),
		RepoURL:     spec.RepoURL(),
		ReleasedAt:  release.GetPublishedAt().Time,
		Checksum:    info.Checksum,
		Size:        info.Size,
		SinceBuild:  info.Meta.SinceBuild,
		UntilBuild:  info.Meta.UntilBuild,
	}
	// the archive's own descriptor is authoritative where it is populated
	if info.Meta.ID != "" {
		rec.ID = info.Meta.ID
	}
	if info.Meta.Name != "" {
		rec.Name = info.Meta.Name
	}
	if info.Meta.Version != "" {
		rec.Version = info.Meta.Version
	}
	if info.Meta.Description != "" {
		rec.Description = info.Meta.Description
	}
	r.log.Infof("resolved %s@%s from %s", rec.ID, rec.Version, spec.Repo)
	return rec, nil
}

func resolvePinned(spec *config.PluginSpec) *registry.Record {
	return &registry.Record{
		ID:          spec.ID,
		Name:        spec.Name,
		Version:     spec.Pin,
		Description: spec.Description,
		DownloadURL: fmt.Sprintf("%s/releases/download/v%s/%s-%s.zip", spec.RepoURL(), spec.Pin, spec.Artifact, spec.Pin),
		RepoURL:     spec.RepoURL(),
		Pinned:      true,
	}
}
