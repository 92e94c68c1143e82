package command

import (
	"tutor/internal/logger"
)

// State is the conversation state of a session.
type State int

const (
	Idle State = iota
	Active
	AwaitingInput
	Ended
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case AwaitingInput:
		return "awaiting-input"
	case Ended:
		return "ended"
	}
	return "idle"
}

// Action tells the caller what to do with the utterance.
type Action int

const (
	// ActionIgnore: nothing is recorded or answered.
	ActionIgnore Action = iota
	ActionGreet
	ActionForward
	ActionHelp
	ActionRepeat
	ActionPause
	ActionResume
	ActionEnd
	// ActionInvalid: the input makes no sense in the current state.
	ActionInvalid
)

// Decision is the outcome of one transition.
type Decision struct {
	Kind   Kind
	From   State
	To     State
	Action Action
}

// Invalid reports an InvalidStateTransition; the state is unchanged.
func (d Decision) Invalid() bool { return d.Action == ActionInvalid }

// Forward reports whether the utterance goes on to question answering.
func (d Decision) Forward() bool { return d.Action == ActionForward }

// Interpreter holds one session's state. It is not safe for concurrent
// use.
type Interpreter struct {
	state State
}

func NewInterpreter() *Interpreter { return &Interpreter{state: Idle} }

func (i *Interpreter) State() State { return i.state }

// Interpret classifies utterance and applies the transition.
func (i *Interpreter) Interpret(utterance string) Decision {
	return i.Apply(Classify(utterance))
}

// NoInput signals that nothing was heard within the caller's time bound.
func (i *Interpreter) NoInput() Decision { return i.Apply(KindNoInput) }

// Apply performs the transition for kind.
func (i *Interpreter) Apply(kind Kind) Decision {
	to, action := transition(i.state, kind)
	d := Decision{Kind: kind, From: i.state, To: to, Action: action}
	if d.Invalid() {
		logger.Warn("ignoring %s in state %s", kind, i.state)
	} else {
		logger.Debug("%s: %s -> %s", kind, i.state, to)
	}
	i.state = to
	return d
}

func transition(from State, kind Kind) (State, Action) {
	switch from {
	case Idle:
		if kind == KindStart {
			return Active, ActionGreet
		}
		return Idle, ActionIgnore

	case Active:
		switch kind {
		case KindGoodbye:
			return Ended, ActionEnd
		case KindContent:
			return Active, ActionForward
		case KindHelp:
			return Active, ActionHelp
		case KindRepeat:
			return Active, ActionRepeat
		case KindStop, KindNoInput:
			return AwaitingInput, ActionPause
		}

	case AwaitingInput:
		switch kind {
		case KindStart:
			return Active, ActionResume
		case KindContent:
			return Active, ActionForward
		case KindRepeat:
			return Active, ActionRepeat
		case KindHelp:
			return Active, ActionHelp
		case KindGoodbye:
			return Ended, ActionEnd
		case KindNoInput:
			return AwaitingInput, ActionIgnore
		}
	}
	return from, ActionInvalid
}
