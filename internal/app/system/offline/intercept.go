package offline

import (
	"context"
	"errors"
	"net/http"
)

// Source tells where an intercepted response came from.
type Source string

const (
	FromCache   Source = "cache"
	FromNetwork Source = "network"
)

// Intercept answers req cache-first. A GET or HEAD request whose exact key
// is in bucket is served from the bucket without touching the network.
// Every other request goes to network exactly once and its response is
// returned unmodified. The bucket is never written.
func Intercept(ctx context.Context, bucket Bucket, network http.RoundTripper, req *http.Request) (*http.Response, Source, error) {
	if bucket != nil && cacheable(req) {
		stored, err := bucket.Match(ctx, CacheKey(req.URL))
		switch {
		case err == nil:
			return stored.HTTPResponse(req), FromCache, nil
		case !errors.Is(err, ErrNotFound):
			return nil, FromCache, err
		}
	}

	res, err := network.RoundTrip(req)
	return res, FromNetwork, err
}

func cacheable(req *http.Request) bool {
	return req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == ""
}
