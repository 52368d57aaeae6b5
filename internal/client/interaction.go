package client

import "errors"

// ErrCancelled is returned when the operator declines a confirmation. No request was sent.
var ErrCancelled = errors.New("client: cancelled by user")

// Confirmer asks the operator to approve a destructive operation.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Confirm runs c, treating a nil Confirmer as a refusal.
func Confirm(c Confirmer, prompt string) error {
	if c == nil {
		return ErrCancelled
	}
	ok, err := c.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// Level grades a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient message for the operator.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices. A nil Notifier drops them.
type Notifier interface {
	Notify(Notice)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(Notice)

func (f NotifyFunc) Notify(n Notice) { f(n) }

// Emit sends n to notifier when one is set.
func Emit(notifier Notifier, level Level, message string) {
	if notifier == nil {
		return
	}
	notifier.Notify(Notice{Level: level, Message: message})
}
