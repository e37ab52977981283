package order

import (
	"database/sql"
	"errors"

	"github.com/volatiletech/null"
)

var errOrderNotFound = errors.New("order not found")

// Repository stores leaf orders keyed by order id
type Repository struct {
	db *sql.DB
}

// record is an order row. Optional levels and times are nullable text
type record struct {
	ID             string
	Symbol         string
	Exchange       string
	Action         string
	Direction      string
	Size           string
	Type           string
	Limit          null.String
	Stop           null.String
	Target         null.String
	StopPct        null.String
	SignalID       null.String
	Status         string
	GenerationTime null.String
	SubmissionTime null.String
	CompletionTime null.String
	TimeInForce    int64
	VenueOrderID   null.String
	RejectReason   null.String
}
