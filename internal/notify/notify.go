// Package notify defines the Notification type routed from tasks back
// to connections through the session registry (spec.md §3).
package notify

import "github.com/forgehouse/auctiond/internal/session"

// Notification carries text addressed to a session. A Notification
// with no session is dropped by the dispatcher — it models "the
// addressee is not currently connected" (spec.md §3).
type Notification struct {
	SessionID  session.ID
	HasSession bool
	Text       string
}

// To addresses a notification to sessionID.
func To(sessionID session.ID, text string) Notification {
	return Notification{SessionID: sessionID, HasSession: true, Text: text}
}

// Dropped returns a notification with no addressee.
func Dropped(text string) Notification {
	return Notification{Text: text}
}
