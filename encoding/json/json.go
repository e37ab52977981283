package json

import (
	jsoniter "github.com/json-iterator/go"
)

var std = jsoniter.ConfigCompatibleWithStandardLibrary

// Implementations are drop-in replacements for encoding/json
var (
	// Marshal returns the JSON encoding of v
	Marshal = std.Marshal
	// MarshalIndent is like Marshal but applies Indent to format the output
	MarshalIndent = std.MarshalIndent
	// Unmarshal parses the JSON-encoded data and stores the result in v
	Unmarshal = std.Unmarshal
	// NewEncoder returns a new encoder that writes to w
	NewEncoder = std.NewEncoder
	// NewDecoder returns a new decoder that reads from r
	NewDecoder = std.NewDecoder
	// Valid reports whether data is a valid JSON encoding
	Valid = std.Valid
)

// RawMessage is a raw encoded JSON value
type RawMessage = jsoniter.RawMessage
