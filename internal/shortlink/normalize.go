package shortlink

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a destination URL. Input without a scheme is
// promoted to https, the scheme and host are lowercased, and anything
// that is not http or https is rejected with ErrInvalidURL.
func Normalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrInvalidURL
	}

	lower := strings.ToLower(rawURL)

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	case strings.Contains(rawURL, "://"):
		// Some other scheme; promotion would mangle it.
		return "", ErrInvalidURL
	default:
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}

	if u.Host == "" {
		return "", ErrInvalidURL
	}

	return u.String(), nil
}
