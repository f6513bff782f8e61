// Package track records application-defined custom events for later
// delivery to an analytics endpoint.
//
// A Recorder stamps each event and appends it to a Queue. Delivery is
// someone else's job: a collaborator calls Queue.Drain on its own schedule
// and deals with transport failures itself. Recording never fails.
package track

import (
	"time"

	"github.com/google/uuid"
)

// Event is a named occurrence. Events are values and are not modified after
// creation.
type Event struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Time time.Time `json:"time"`
}

// NewEvent returns an Event named name, created at t, with a fresh random ID.
func NewEvent(name string, t time.Time) Event {
	return Event{
		ID:   uuid.NewString(),
		Name: name,
		Time: t,
	}
}
