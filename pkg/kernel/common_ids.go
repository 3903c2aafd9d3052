package kernel

import "github.com/google/uuid"

// SessionID identifies one authenticated session, from successful validation to logout.
type SessionID string

func NewSessionID() SessionID      { return SessionID(uuid.NewString()) }
func (s SessionID) String() string { return string(s) }
func (s SessionID) IsEmpty() bool  { return string(s) == "" }

// EventID identifies one analytics event.
type EventID string

func NewEventID() EventID        { return EventID(uuid.NewString()) }
func (e EventID) String() string { return string(e) }
