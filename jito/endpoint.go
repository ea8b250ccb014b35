package jito

import (
	"fmt"
	"sort"
	"strings"

	"bundler/utils"
)

// BlockEngineLocations maps the selectable region names to block engine
// hostnames. Unknown selections fail before any network call.
var BlockEngineLocations = map[string]string{
	"amsterdam": "amsterdam.mainnet.block-engine.jito.wtf",
	"frankfurt": "frankfurt.mainnet.block-engine.jito.wtf",
	"ny":        "ny.mainnet.block-engine.jito.wtf",
	"tokyo":     "tokyo.mainnet.block-engine.jito.wtf",
}

func ResolveLocation(location string) (string, error) {
	host, ok := BlockEngineLocations[strings.ToLower(strings.TrimSpace(location))]
	if !ok {
		known := make([]string, 0, len(BlockEngineLocations))
		for k := range BlockEngineLocations {
			known = append(known, k)
		}
		sort.Strings(known)
		return "", fmt.Errorf("unknown block engine location %q (known: %s): %w",
			location, strings.Join(known, ", "), utils.ErrInvalidEndpoint)
	}
	return host, nil
}

// NormalizeEndpoint reduces a raw user-supplied endpoint to a bare host,
// stripping any protocol prefix and path/query/fragment suffix.
// e.g. "https://foo.example.com/extra" -> "foo.example.com"
func NormalizeEndpoint(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	host = strings.TrimPrefix(host, "dns:")
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	for _, sep := range []string{"/", "?", "#"} {
		if i := strings.Index(host, sep); i >= 0 {
			host = host[:i]
		}
	}
	if host == "" {
		return "", fmt.Errorf("empty block engine endpoint: %w", utils.ErrInvalidEndpoint)
	}
	return host, nil
}
