package region

import "fmt"

var (
	// ErrNoCountries is returned when the backend lists regions but none of
	// them services a country
	ErrNoCountries = fmt.Errorf("region: regions list no countries")

	// ErrSnapshotNotFound is returned when no snapshot is stored
	ErrSnapshotNotFound = fmt.Errorf("region: snapshot not found")
)

// ErrInvalidConfig resolver configuration error
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("region: invalid config: %s", msg)
}

// ErrSnapshot wraps a snapshot store failure
func ErrSnapshot(op string, err error) error {
	return fmt.Errorf("region: snapshot %s failed: %w", op, err)
}

// ErrInvalidEvent wraps a region event that could not be decoded
func ErrInvalidEvent(err error) error {
	return fmt.Errorf("region: invalid event: %w", err)
}
