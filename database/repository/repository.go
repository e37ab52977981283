// Package repository holds helpers shared by the storage repositories
package repository

import (
	"errors"
	"time"
)

// ErrNilDB is returned when a repository is created without a connection
var ErrNilDB = errors.New("nil database connection")

// TimeLayout is how optional timestamps are stored as text
const TimeLayout = time.RFC3339Nano
