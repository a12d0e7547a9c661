package requestcontext

import "fmt"

// requestcontextError rejects the request with the given status instead of
// being treated as an internal failure.
type requestcontextError struct {
	status  int
	message string
}

func (e requestcontextError) Error() string {
	return fmt.Sprintf("requestcontext: %d %s", e.status, e.message)
}

func newError(status int, message string) requestcontextError {
	return requestcontextError{status: status, message: message}
}
