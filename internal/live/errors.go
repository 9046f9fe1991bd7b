package live

import "fmt"

// CommandError reports a failed create, update, delete or get.
type CommandError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *CommandError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// SubscriptionError reports a listener failure for one collection.
type SubscriptionError struct {
	Collection string
	Message    string
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("%s subscription: %s", e.Collection, e.Message)
}
