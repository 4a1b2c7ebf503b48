package apiclient

import "strings"

// BuildURL joins base, version and endpoint so that exactly one slash
// separates each segment. Empty segments are skipped, runs of slashes inside
// version and endpoint collapse to one, and trailing slashes are dropped, which
// makes BuildURL idempotent on its own output. An endpoint that is already an
// absolute URL is returned untouched; a URL inside the query string does not
// make the endpoint absolute.
func BuildURL(base, version, endpoint string) string {
	path, query := splitQuery(endpoint)
	if strings.Contains(path, "://") {
		return endpoint
	}

	b := strings.TrimRight(strings.TrimSpace(base), "/")

	segments := make([]string, 0, 3)
	segments = append(segments, b)
	if v := collapseSlashes(strings.Trim(strings.TrimSpace(version), "/")); v != "" {
		segments = append(segments, v)
	}
	if p := collapseSlashes(strings.Trim(path, "/")); p != "" {
		segments = append(segments, p)
	}

	out := strings.Join(segments, "/")
	if out == "" {
		// No base, version or path: the root.
		out = "/"
	}
	return out + query
}

// URL resolves endpoint against the client's configured base URL and version.
func (c *Client) URL(endpoint string) string {
	return BuildURL(c.baseURL, c.version, endpoint)
}

func splitQuery(endpoint string) (path, query string) {
	if i := strings.IndexAny(endpoint, "?#"); i >= 0 {
		return endpoint[:i], endpoint[i:]
	}
	return endpoint, ""
}

func collapseSlashes(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for _, r := range s {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
