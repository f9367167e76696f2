package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

// AllowedOrigins feeds the CORS middleware. Local dev frontends are
// allowed by default; deployments add theirs through CLIENT_URL or a
// comma-separated ALLOWED_ORIGINS.
var AllowedOrigins = loadAllowedOrigins()

func loadAllowedOrigins() []string {
	origins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
