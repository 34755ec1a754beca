package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// InstallConcurrency bounds the number of asset fetches in flight during an
// install.
const InstallConcurrency = 4

// Install opens the bucket for version and fills it with every asset in
// manifest, fetched through network relative to origin.
//
// Any transport error or non-2xx status fails the whole install before the
// bucket is opened, so storage is untouched. If storing a fetched asset
// fails, a bucket this install created is deleted again; a bucket that
// already existed keeps whatever it held plus the entries written so far.
// There is no retry.
func Install(ctx context.Context, storage Storage, version Version, manifest AssetManifest, origin *url.URL, network http.RoundTripper) error {
	if err := version.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}

	targets, err := manifest.Resolve(origin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}

	fetched := make([]Response, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(InstallConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			resp, err := fetchAsset(gctx, network, target)
			if err != nil {
				return err
			}
			fetched[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	name := version.BucketName()
	existed, err := storage.Has(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: check bucket %s: %w", ErrInstallFailed, name, err)
	}
	bucket, err := storage.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: open bucket %s: %w", ErrInstallFailed, name, err)
	}

	for i, target := range targets {
		if err := bucket.Put(ctx, CacheKey(target), fetched[i]); err != nil {
			if !existed {
				if _, derr := storage.Delete(context.WithoutCancel(ctx), name); derr != nil {
					err = errors.Join(err, fmt.Errorf("delete partial bucket: %w", derr))
				}
			}
			return fmt.Errorf("%w: store %s: %w", ErrInstallFailed, target, err)
		}
	}
	return nil
}

func fetchAsset(ctx context.Context, network http.RoundTripper, target *url.URL) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request %s: %w", target, err)
	}

	res, err := network.RoundTrip(req)
	if err != nil {
		return Response{}, fmt.Errorf("fetch %s: %w", target, err)
	}

	captured, err := CaptureResponse(res)
	if err != nil {
		return Response{}, fmt.Errorf("fetch %s: %w", target, err)
	}
	if !captured.OK() {
		return Response{}, fmt.Errorf("fetch %s: unexpected status %d", target, captured.Status)
	}
	captured.URL = CacheKey(target)
	return captured, nil
}
