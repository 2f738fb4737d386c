package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware sets the standard hardening headers. connectSources
// lists extra origins the page may call, such as an external chat API.
func SecurityHeadersMiddleware(connectSources ...string) gin.HandlerFunc {
	policy := buildContentSecurityPolicy(connectSources)

	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-DNS-Prefetch-Control", "off")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("Content-Security-Policy", policy)
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Next()
	}
}

// NoIndexMiddleware keeps search engines away from API responses.
func NoIndexMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Robots-Tag", "noindex, nofollow")
		c.Next()
	}
}

func buildContentSecurityPolicy(connectSources []string) string {
	connect := []string{"'self'"}
	seen := map[string]struct{}{"'self'": {}}
	for _, source := range connectSources {
		origin := originOf(source)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		connect = append(connect, origin)
	}

	directives := []string{
		"default-src 'self'",
		"img-src 'self' data:",
		"style-src 'self' 'unsafe-inline'",
		"script-src 'self'",
		"connect-src " + strings.Join(connect, " "),
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self' " + strings.Join(connect[1:], " "),
		"frame-ancestors 'none'",
	}
	for i, directive := range directives {
		directives[i] = strings.TrimSpace(directive)
	}
	return strings.Join(directives, "; ")
}

// originOf returns scheme://host for absolute URLs and "" for relative ones,
// which 'self' already covers.
func originOf(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
