package reliability

import "net/http"

// MirrorableStatus reports whether an upstream rejection status carries
// meaning for the frontend (it may react by retrying a different voice or
// prompting for a new key). Anything else is an upstream implementation
// detail and maps to 502.
func MirrorableStatus(code int) bool {
	switch code {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusUnprocessableEntity,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// ClientStatus maps an upstream status to the status returned to the client.
func ClientStatus(upstream int) int {
	if MirrorableStatus(upstream) {
		return upstream
	}
	return http.StatusBadGateway
}
