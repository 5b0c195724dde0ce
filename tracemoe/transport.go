package tracemoe

import (
	"errors"
	"net/http"
)

// HeaderAPIKey is the header trace.moe reads the API key from.
const HeaderAPIKey = "x-trace-key"

// DefaultUserAgent is sent when no other User-Agent was configured.
const DefaultUserAgent = "tracescene"

// apiKeyTransport adds the API key and User-Agent to every request. Media downloads
// use it with an empty key.
type apiKeyTransport struct {
	base      http.RoundTripper
	apiKey    string
	userAgent string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}

	// Clone so the caller's request headers stay untouched.
	r := req.Clone(req.Context())
	if t.apiKey != "" {
		r.Header.Set(HeaderAPIKey, t.apiKey)
	}
	if r.Header.Get("User-Agent") == "" && t.userAgent != "" {
		r.Header.Set("User-Agent", t.userAgent)
	}

	return t.transport().RoundTrip(r)
}

func (t *apiKeyTransport) transport() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}
