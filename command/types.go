package command

import "context"

type Command string

const (
	// Restart discards the collected slots and starts a new request.
	Restart Command = "restart"
	None    Command = "none"
)

type Parser interface {
	ParseCommand(ctx context.Context, question, answer string) (Command, error)
}
