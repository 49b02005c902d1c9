package commerce

import "fmt"

var (
	// ErrEmptyRegions is returned when the backend answers without any region
	ErrEmptyRegions = fmt.Errorf("commerce: no regions found, are regions set up in the admin?")
)

// UpstreamError is returned for a non-2xx backend response
type UpstreamError struct {
	StatusCode int
	// Message is the body's message field, empty when the body had none
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("commerce: upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("commerce: upstream returned status %d: %s", e.StatusCode, e.Message)
}

// ErrInvalidConfig invalid client config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("commerce: invalid config: %s", msg)
}

// ErrRequest wraps a transport level failure
func ErrRequest(err error) error {
	return fmt.Errorf("commerce: request failed: %w", err)
}

// ErrDecode wraps a response body that could not be decoded
func ErrDecode(err error) error {
	return fmt.Errorf("commerce: failed to decode response: %w", err)
}
