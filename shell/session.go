package shell

import (
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated state of one login. It is created by a
// successful login and handed to the menu that needs it; nothing else reads it.
type Session struct {
	ID        uuid.UUID
	Username  string
	StartedAt time.Time
}

func newSession(username string, now time.Time) *Session {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Session{ID: id, Username: username, StartedAt: now}
}
