package offline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Response is a captured HTTP response as stored in a bucket.
type Response struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// CaptureResponse reads res fully and closes its body.
func CaptureResponse(res *http.Response) (Response, error) {
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}

	u := ""
	if res.Request != nil && res.Request.URL != nil {
		u = CacheKey(res.Request.URL)
	}

	return Response{
		URL:      u,
		Status:   res.StatusCode,
		Header:   res.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}, nil
}

// HTTPResponse rebuilds an *http.Response for req. Each call returns a fresh
// body reader, so one stored Response can answer any number of requests.
func (r Response) HTTPResponse(req *http.Request) *http.Response {
	header := r.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Length", strconv.Itoa(len(r.Body)))

	var body io.ReadCloser = http.NoBody
	if req == nil || req.Method != http.MethodHead {
		body = io.NopCloser(bytes.NewReader(r.Body))
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.Status, http.StatusText(r.Status)),
		StatusCode:    r.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          body,
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

// OK reports whether the status is in the 2xx range.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// CacheKey is the exact-match key for u: the absolute URL without fragment.
func CacheKey(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
