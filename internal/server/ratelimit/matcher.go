package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited routes serve health checks and metric scrapes and are never throttled.
var unlimited = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// MatchEndpoint finds the endpoint configuration for a request. An exact path
// wins; otherwise the longest configured path ending in "/" that prefixes the
// request path is used. Returns nil when nothing matches.
func MatchEndpoint(path, method string, endpoints []EndpointConfig) *EndpointConfig {
	if method == http.MethodGet && unlimited[path] {
		return &EndpointConfig{}
	}

	var best *EndpointConfig
	for i := range endpoints {
		ep := &endpoints[i]
		if ep.Method != method {
			continue
		}
		if ep.Path == path {
			return ep
		}
		if strings.HasSuffix(ep.Path, "/") && strings.HasPrefix(path, ep.Path) &&
			(best == nil || len(ep.Path) > len(best.Path)) {
			best = ep
		}
	}
	return best
}
