package bus

import "time"

// Event is a domain event published on the bus. ID and Timestamp are
// stamped by Publish when left empty.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
