package offline_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"github.com/jarcoal/httpmock"
)

const origin = "http://laundry.test"

var threeAssets = []string{"/", "/manifest.json", "/icons/icon-192x192.png"}

func originURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(origin)
	if err != nil {
		t.Fatalf("parse origin: %v", err)
	}
	return u
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// newNetwork returns a mock transport serving a small app shell.
func newNetwork() *httpmock.MockTransport {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, origin+"/", httpmock.NewStringResponder(http.StatusOK, "<html>shell</html>"))
	mt.RegisterResponder(http.MethodGet, origin+"/manifest.json", httpmock.NewStringResponder(http.StatusOK, `{"name":"LaundryPOS"}`))
	mt.RegisterResponder(http.MethodGet, origin+"/icons/icon-192x192.png", httpmock.NewStringResponder(http.StatusOK, "png-192"))
	mt.RegisterResponder(http.MethodGet, origin+"/icons/icon-512x512.png", httpmock.NewStringResponder(http.StatusOK, "png-512"))
	mt.RegisterResponder(http.MethodGet, origin+"/api/sales", httpmock.NewStringResponder(http.StatusOK, `[]`))
	mt.RegisterResponder(http.MethodPost, origin+"/api/sales", httpmock.NewStringResponder(http.StatusCreated, `{"id":"1"}`))
	return mt
}

func v(tag string) offline.Version {
	return offline.Version{Prefix: "laundrypos", Tag: tag}
}

func key(path string) string {
	return origin + path
}
