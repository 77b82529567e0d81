package worker

import (
	"github.com/forgehouse/auctiond/internal/command"
	"github.com/forgehouse/auctiond/internal/notify"
	"github.com/forgehouse/auctiond/internal/session"
)

// CommandTask adapts one parsed command, plus the session that issued
// it, to queue.Task. The network reactor constructs these and enqueues
// them; the dispatcher runs them (spec.md §4.7).
type CommandTask struct {
	Ctx       command.Context
	SessionID session.ID
	Cmd       command.Command
}

// Run executes the command and returns its single notification.
func (t CommandTask) Run() notify.Notification {
	return command.Execute(t.Ctx, t.SessionID, t.Cmd)
}
