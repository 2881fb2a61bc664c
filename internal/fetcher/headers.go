package fetcher

import (
	"net/http"
	"strings"
)

// Headers is an immutable header set. Every With* method returns a new
// value; the receiver is never modified, so a base template can be shared
// across calls.
type Headers struct {
	h http.Header
}

// BaseHeaders builds the browser-like template for a site.
func BaseHeaders(siteURL, userAgent string) Headers {
	origin := strings.TrimRight(siteURL, "/")
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", userAgent)
	h.Set("Origin", origin)
	h.Set("Referer", origin+"/")
	h.Set("X-Requested-With", "XMLHttpRequest")
	return Headers{h: h}
}

// With returns a copy with key set to value.
func (h Headers) With(key, value string) Headers {
	next := h.h.Clone()
	if next == nil {
		next = http.Header{}
	}
	next.Set(key, value)
	return Headers{h: next}
}

// WithReferer returns a copy targeting the given page.
func (h Headers) WithReferer(referer string) Headers {
	return h.With("Referer", referer)
}

// WithPHReferer returns a copy carrying the site's custom referer header,
// which some operations check in addition to Referer.
func (h Headers) WithPHReferer(referer string) Headers {
	return h.With("X-Ph-Referer", referer)
}

// Get returns a header value.
func (h Headers) Get(key string) string {
	return h.h.Get(key)
}

// Header returns a private copy suitable for attaching to an *http.Request.
func (h Headers) Header() http.Header {
	if h.h == nil {
		return http.Header{}
	}
	return h.h.Clone()
}
