package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilArguments is returned when a required argument is nil
	ErrNilArguments = errors.New("received nil argument(s)")
	// ErrNilEvent is returned when an event handler receives a nil event
	ErrNilEvent = errors.New("nil event received")
	// ErrDateUnset is returned when a timestamp is required but zero
	ErrDateUnset = errors.New("date unset")
)

// AppendError combines a new error with an existing one, ignoring nils
func AppendError(original, incoming error) error {
	if incoming == nil {
		return original
	}
	if original == nil {
		return incoming
	}
	return errors.Join(original, incoming)
}

// GenerateFileName returns a lowercase, filesystem safe file name
func GenerateFileName(fileName, extension string) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("%w: filename", ErrNilArguments)
	}
	if extension == "" {
		return "", fmt.Errorf("%w: extension", ErrNilArguments)
	}
	r := strings.NewReplacer(" ", "-", ":", "-", "/", "-", "\\", "-")
	return strings.ToLower(r.Replace(fileName) + "." + strings.TrimPrefix(extension, ".")), nil
}
