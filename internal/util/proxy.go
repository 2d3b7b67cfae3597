// Package util holds small helpers shared by the HTTP-facing layers.
package util

import (
	"net/http"
	"net/url"
)

// ProxyFunc builds the Transport.Proxy hook for outbound requests.
// Explicit proxy URLs win; with neither set, the standard
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment handling applies.
func ProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
