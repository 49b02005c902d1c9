package config

import "fmt"

// ErrLoadEnvFile wraps a .env file that exists but could not be read
func ErrLoadEnvFile(path string, err error) error {
	return fmt.Errorf("config: load %s: %w", path, err)
}

// ErrDecode wraps an environment value that could not be decoded
func ErrDecode(err error) error {
	return fmt.Errorf("config: decode environment: %w", err)
}

// ErrInvalid wraps a section that failed validation
func ErrInvalid(section string, err error) error {
	return fmt.Errorf("config: invalid %s: %w", section, err)
}
