package httpx

import "net/http"

// RespondError answers an error the handler did not map itself. The body
// deliberately carries no detail; callers log the original error.
func RespondError(w http.ResponseWriter, _ error) {
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
