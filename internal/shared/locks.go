package shared

import "fmt"

// GenerationKey builds the redis key counting requests for one view of a session.
func GenerationKey(sessionID, view string) string {
	return fmt.Sprintf("viewgen:%s:%s", sessionID, view)
}

// ActionLockKey builds the redis key marking an admin action as in flight.
func ActionLockKey(sessionID, action string) string {
	return fmt.Sprintf("action:%s:%s:lock", sessionID, action)
}

// ActionOutcomeKey builds the redis key holding the settled outcome of an
// admin action until the panel next renders.
func ActionOutcomeKey(sessionID, action string) string {
	return fmt.Sprintf("action:%s:%s:outcome", sessionID, action)
}
