package offline

import (
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// SourceHeader is set on proxied responses to tell whether the bucket or
// the origin answered.
const SourceHeader = "X-Offline-Source"

// hop-by-hop headers are not forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// ServeHTTP forwards r to the worker's origin through a fetch event.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	out := outboundRequest(r, w.cfg.Origin)
	res, src, err := w.Fetch(out)
	writeProxied(rw, res, src, err, w.log)
}

// outboundRequest rewrites an inbound server request into a client request
// against origin, keeping path and query.
func outboundRequest(r *http.Request, origin *url.URL) *http.Request {
	out := r.Clone(r.Context())
	out.URL = origin.ResolveReference(&url.URL{
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	})
	out.Host = ""
	out.RequestURI = ""
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}
	if r.ContentLength == 0 {
		out.Body = nil
	}
	return out
}

func writeProxied(rw http.ResponseWriter, res *http.Response, src Source, err error, log *zap.Logger) {
	if err != nil {
		log.Warn("offline proxy request failed",
			zap.String("source", string(src)),
			zap.Error(err))
		http.Error(rw, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer res.Body.Close()

	h := rw.Header()
	for k, vv := range res.Header {
		for _, v := range vv {
			h.Add(k, v)
		}
	}
	for _, hh := range hopHeaders {
		h.Del(hh)
	}
	h.Set(SourceHeader, string(src))
	rw.WriteHeader(res.StatusCode)

	if _, err := io.Copy(rw, res.Body); err != nil {
		log.Debug("copy proxied body", zap.Error(err))
	}
}
