package session

// CurrentSchemaVersion is the record encoding version written by Encode.
// Version 1 predates DisplayName.
const CurrentSchemaVersion = 2

// Record defines a public type used by authcore APIs.
//
// Record instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Record struct {
	SchemaVersion uint8

	UserID      string
	DisplayName string
	Email       string
	Role        string

	IssuedAt  int64
	ExpiresAt int64
}
