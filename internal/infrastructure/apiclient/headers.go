package apiclient

import "net/http"

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerRequestID     = "X-Request-ID"

	mimeJSON = "application/json"
)

// BuildHeaders returns the default headers for a request. JSON requests get
// Content-Type: application/json; multipart requests get no Content-Type so the
// encoder can supply the boundary. Authorization is added only when token is
// non-empty.
func BuildHeaders(token string, multipart bool) http.Header {
	h := make(http.Header, 2)
	if !multipart {
		h.Set(headerContentType, mimeJSON)
	}
	if token != "" {
		h.Set(headerAuthorization, "Bearer "+token)
	}
	return h
}
