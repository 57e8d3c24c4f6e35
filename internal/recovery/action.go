package recovery

import "fmt"

// Action is one rung of the recovery escalation ladder, ordered from
// least to most intrusive
type Action int

const (
	// PrimaryShortcut sends the accept/continue keyboard shortcut
	PrimaryShortcut Action = iota
	// CommandInvocation opens the host application's command entry,
	// types a command name, and confirms it
	CommandInvocation
	// SubmitKey sends a bare submit key to the focused window
	SubmitKey
	// LiteralTextFallback focuses the input region, selects all, types a
	// literal fallback phrase, and submits
	LiteralTextFallback
)

// String returns the configuration name of the action
func (a Action) String() string {
	switch a {
	case PrimaryShortcut:
		return "shortcut"
	case CommandInvocation:
		return "command"
	case SubmitKey:
		return "submit"
	case LiteralTextFallback:
		return "text"
	default:
		return "unknown"
	}
}

// ParseAction resolves a configuration name to an action
func ParseAction(name string) (Action, error) {
	switch name {
	case "shortcut":
		return PrimaryShortcut, nil
	case "command":
		return CommandInvocation, nil
	case "submit":
		return SubmitKey, nil
	case "text":
		return LiteralTextFallback, nil
	default:
		return 0, fmt.Errorf("unknown recovery method %q", name)
	}
}

// DefaultChain is the full escalation order
func DefaultChain() []Action {
	return []Action{PrimaryShortcut, CommandInvocation, SubmitKey, LiteralTextFallback}
}

// ChainFromNames builds an ordered action chain from configuration
// names, rejecting unknown names
func ChainFromNames(names []string) ([]Action, error) {
	if len(names) == 0 {
		return DefaultChain(), nil
	}
	chain := make([]Action, 0, len(names))
	for _, name := range names {
		action, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, action)
	}
	return chain, nil
}
