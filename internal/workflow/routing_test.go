package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/temirov/llm-interpreter/internal/planner"
	"github.com/temirov/llm-interpreter/internal/workflow"
)

func TestNextSpeaker(t *testing.T) {
	testCases := []struct {
		name        string
		from        workflow.Participant
		state       workflow.RoundState
		expected    workflow.Participant
		expectRoute bool
	}{
		{name: "user runs pending code", from: workflow.ParticipantUser, state: workflow.RoundState{Step: planner.KindRunCode, CoderOutputPending: true}, expected: workflow.ParticipantRunner, expectRoute: true},
		{name: "user cannot run without code", from: workflow.ParticipantUser, state: workflow.RoundState{Step: planner.KindRunCode}, expected: workflow.ParticipantUser},
		{name: "coder hands to runner", from: workflow.ParticipantCoder, state: workflow.RoundState{Step: planner.KindRunCode}, expected: workflow.ParticipantRunner, expectRoute: true},
		{name: "user asks for code", from: workflow.ParticipantUser, state: workflow.RoundState{Step: planner.KindWriteCode}, expected: workflow.ParticipantCoder, expectRoute: true},
		{name: "user asks for fix", from: workflow.ParticipantUser, state: workflow.RoundState{Step: planner.KindFixError}, expected: workflow.ParticipantCoder, expectRoute: true},
		{name: "runner error goes to coder", from: workflow.ParticipantRunner, state: workflow.RoundState{Step: planner.KindFixError}, expected: workflow.ParticipantCoder, expectRoute: true},
		{name: "user asked again", from: workflow.ParticipantUser, state: workflow.RoundState{Step: planner.KindNeedInfo}, expected: workflow.ParticipantUser, expectRoute: true},
		{name: "coder needs info", from: workflow.ParticipantCoder, state: workflow.RoundState{Step: planner.KindNeedInfo}, expected: workflow.ParticipantUser, expectRoute: true},
		{name: "runner asks approval", from: workflow.ParticipantRunner, state: workflow.RoundState{Step: planner.KindApproval}, expected: workflow.ParticipantUser, expectRoute: true},
		{name: "runner needs info", from: workflow.ParticipantRunner, state: workflow.RoundState{Step: planner.KindNeedInfo}, expected: workflow.ParticipantUser, expectRoute: true},
		{name: "coder cannot write again", from: workflow.ParticipantCoder, state: workflow.RoundState{Step: planner.KindWriteCode}, expected: workflow.ParticipantCoder},
		{name: "unknown step stalls", from: workflow.ParticipantUser, state: workflow.RoundState{Step: planner.KindUnknown}, expected: workflow.ParticipantUser},
		{name: "approval from user stalls", from: workflow.ParticipantUser, state: workflow.RoundState{Step: planner.KindApproval}, expected: workflow.ParticipantUser},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			next, routed := workflow.NextSpeaker(workflow.DefaultRoutes(), testCase.from, testCase.state)
			assert.Equal(t, testCase.expectRoute, routed)
			assert.Equal(t, testCase.expected, next)
		})
	}
}
