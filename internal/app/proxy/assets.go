// internal/app/proxy/assets.go
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dalemusser/laundrypos/internal/app/features/pwa"
	"github.com/dalemusser/laundrypos/internal/app/system/offline"
)

// AssetsPath is where the origin publishes its cache generation.
const AssetsPath = "/offline/assets"

const maxAssetsBody = 1 << 20

// FetchAssets reads the origin's current cache generation and asset list.
func FetchAssets(ctx context.Context, client *http.Client, origin *url.URL) (offline.Version, offline.AssetManifest, error) {
	u := origin.ResolveReference(&url.URL{Path: AssetsPath})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return offline.Version{}, offline.AssetManifest{}, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return offline.Version{}, offline.AssetManifest{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return offline.Version{}, offline.AssetManifest{}, fmt.Errorf("GET %s: status %d", u, res.StatusCode)
	}

	var in pwa.OfflineAssets
	if err := json.NewDecoder(io.LimitReader(res.Body, maxAssetsBody)).Decode(&in); err != nil {
		return offline.Version{}, offline.AssetManifest{}, fmt.Errorf("decode %s: %w", u, err)
	}

	version := offline.Version{Prefix: in.Prefix, Tag: in.Tag}
	if err := version.Validate(); err != nil {
		return offline.Version{}, offline.AssetManifest{}, err
	}
	manifest, err := offline.NewAssetManifest(in.Assets...)
	if err != nil {
		return offline.Version{}, offline.AssetManifest{}, err
	}
	return version, manifest, nil
}
