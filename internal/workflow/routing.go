package workflow

import "github.com/temirov/llm-interpreter/internal/planner"

// Participant identifies who may speak in a round.
type Participant int

const (
	ParticipantUser Participant = iota
	ParticipantCoder
	ParticipantRunner
)

func (p Participant) String() string {
	switch p {
	case ParticipantCoder:
		return "coder"
	case ParticipantRunner:
		return "runner"
	default:
		return "user"
	}
}

// RoundState is the immutable input of every routing guard, built once per round.
type RoundState struct {
	Step               planner.Kind
	CoderOutputPending bool
}

// Guard decides whether an edge may fire in a round.
type Guard func(state RoundState) bool

// Edge lets To speak after From when Guard holds.
type Edge struct {
	From  Participant
	To    Participant
	Guard Guard
}

func stepIs(kinds ...planner.Kind) Guard {
	return func(state RoundState) bool {
		for _, kind := range kinds {
			if state.Step == kind {
				return true
			}
		}
		return false
	}
}

// DefaultRoutes is the code interpreter routing graph, in priority order.
func DefaultRoutes() []Edge {
	return []Edge{
		{From: ParticipantUser, To: ParticipantRunner, Guard: func(state RoundState) bool {
			return state.Step == planner.KindRunCode && state.CoderOutputPending
		}},
		{From: ParticipantCoder, To: ParticipantRunner, Guard: stepIs(planner.KindRunCode)},
		{From: ParticipantUser, To: ParticipantCoder, Guard: stepIs(planner.KindWriteCode, planner.KindFixError)},
		{From: ParticipantRunner, To: ParticipantCoder, Guard: stepIs(planner.KindFixError)},
		{From: ParticipantUser, To: ParticipantUser, Guard: stepIs(planner.KindNeedInfo)},
		{From: ParticipantCoder, To: ParticipantUser, Guard: stepIs(planner.KindNeedInfo)},
		{From: ParticipantRunner, To: ParticipantUser, Guard: stepIs(planner.KindApproval, planner.KindNeedInfo)},
	}
}

// NextSpeaker returns the target of the first enabled edge leaving from.
func NextSpeaker(routes []Edge, from Participant, state RoundState) (Participant, bool) {
	for _, edge := range routes {
		if edge.From == from && edge.Guard != nil && edge.Guard(state) {
			return edge.To, true
		}
	}
	return from, false
}
