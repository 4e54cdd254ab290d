package engine

import "log/slog"

// Command is a manual-override message for the engine. Commands are
// queued and processed only between cycles; nothing preempts an
// in-flight OPEN or CLOSING.
type Command int

const (
	// CommandPause stops opening new cycles. A pending close still runs.
	CommandPause Command = iota + 1
	// CommandResume re-enables cycle opening after a pause.
	CommandResume
	// CommandCloseAndExit closes any open position and stops the engine.
	CommandCloseAndExit
)

func (c Command) String() string {
	switch c {
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandCloseAndExit:
		return "close-and-exit"
	}
	return "unknown"
}

// Send queues a command for the engine. Non-blocking; returns false if
// the queue is full.
func (e *Engine) Send(cmd Command) bool {
	select {
	case e.commands <- cmd:
		return true
	default:
		return false
	}
}

// drainCommands applies everything queued since the last tick. Returns
// true when a close-and-exit was requested.
func (e *Engine) drainCommands() (exit bool) {
	for {
		select {
		case cmd := <-e.commands:
			slog.Info("engine: command received", "cmd", cmd.String())
			switch cmd {
			case CommandPause:
				e.paused = true
			case CommandResume:
				e.paused = false
			case CommandCloseAndExit:
				exit = true
			}
		default:
			return exit
		}
	}
}
