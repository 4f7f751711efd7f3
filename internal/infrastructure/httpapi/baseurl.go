package httpapi

import "strings"

// BuildBaseURL can be burned in at build time:
//
//	go build -ldflags "-X github.com/autobridge/autobridge-go/internal/infrastructure/httpapi.BuildBaseURL=https://api.autobridge.example"
var BuildBaseURL string

// DefaultBaseURL is the fixed fallback when nothing else supplies a base URL.
const DefaultBaseURL = "http://localhost:8080"

// ResolveBaseURL picks the API base URL, highest priority first: the runtime
// override (environment), the build-time BuildBaseURL, the configured value
// (config file), then DefaultBaseURL. Resolved once at startup; a trailing
// slash is stripped so path joining stays uniform.
func ResolveBaseURL(runtimeOverride, configured string) string {
	for _, candidate := range []string{runtimeOverride, BuildBaseURL, configured} {
		if candidate != "" {
			return strings.TrimRight(candidate, "/")
		}
	}
	return DefaultBaseURL
}
