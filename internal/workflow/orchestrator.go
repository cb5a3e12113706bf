// Package workflow drives the planner and the participants through rounds until
// the planner reports a terminal step or the round budget runs out.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/planner"
)

const (
	DefaultName     = "code-interpreter"
	DefaultMaxRound = 10
)

const (
	roundPlanErrorFormat       = "round %d: %w"
	roundExchangeErrorFormat   = "round %d: %s reply: %w"
	cancelledErrorFormat       = "solve cancelled before round %d: %w"
	missingCoderErrorFormat    = "%w: %s invoked without a message from %s"
	noPendingOutputErrorFormat = "%w: %s invoked before %s spoke in this session"
	maxRoundReasonFormat       = "maximum round reached: %d rounds ran without resolving the task"
)

var (
	ErrInvalidRoutingState  = errors.New("invalid routing state")
	errEmptyHistory         = errors.New("solve requires a non-empty history")
	errMissingPlanner       = errors.New("orchestrator requires a planner")
	errMissingParticipant   = errors.New("orchestrator requires user, coder and runner participants")
	errDuplicateParticipant = errors.New("participant names must be distinct")
)

// StepPlanner chooses the next step from a windowed planner context.
type StepPlanner interface {
	Name() string
	Plan(ctx context.Context, plannerContext []agent.Message) (planner.Step, agent.Message, error)
}

// Participants are the agents the routing graph hands turns to.
type Participants struct {
	User   agent.Agent
	Coder  agent.Agent
	Runner agent.Agent
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	Name          string
	MaxRound      int
	ContextWindow int
	Fewshot       []agent.Message
	Routes        []Edge
	Recorder      Recorder
	Logger        *zap.Logger
}

// Orchestrator holds immutable configuration only; every Solve call owns its session.
type Orchestrator struct {
	planner      StepPlanner
	participants Participants
	options      Options
	logger       *zap.Logger
}

func New(stepPlanner StepPlanner, participants Participants, options Options) (*Orchestrator, error) {
	if stepPlanner == nil {
		return nil, errMissingPlanner
	}
	if participants.User == nil || participants.Coder == nil || participants.Runner == nil {
		return nil, errMissingParticipant
	}
	names := map[string]bool{}
	for _, participant := range []agent.Agent{participants.User, participants.Coder, participants.Runner} {
		if names[participant.Name()] {
			return nil, fmt.Errorf("%w: %q", errDuplicateParticipant, participant.Name())
		}
		names[participant.Name()] = true
	}

	if strings.TrimSpace(options.Name) == "" {
		options.Name = DefaultName
	}
	if options.MaxRound <= 0 {
		options.MaxRound = DefaultMaxRound
	}
	if options.ContextWindow <= 0 {
		options.ContextWindow = planner.DefaultContextWindow
	}
	if options.Fewshot == nil {
		options.Fewshot = planner.FewshotExamples()
	}
	if options.Routes == nil {
		options.Routes = DefaultRoutes()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		planner:      stepPlanner,
		participants: participants,
		options:      options,
		logger:       logger,
	}, nil
}

func (o *Orchestrator) Name() string { return o.options.Name }

func (o *Orchestrator) GenerateReply(ctx context.Context, messages []agent.Message) (agent.Message, error) {
	return o.Solve(ctx, messages)
}

type session struct {
	id                 string
	history            []agent.Message
	previousSteps      []agent.Message
	coderOutputPending bool
}

// Solve runs rounds over history and returns the terminal step message,
// relabelled as coming from the orchestrator.
func (o *Orchestrator) Solve(ctx context.Context, history []agent.Message) (agent.Message, error) {
	if len(history) == 0 {
		return agent.Message{}, errEmptyHistory
	}
	current := &session{id: uuid.NewString(), history: agent.Append(history)}
	logger := o.logger.With(zap.String("session_id", current.id), zap.String("workflow", o.Name()))
	task, _ := agent.Last(current.history)
	o.record(ctx, logger, Event{SessionID: current.id, Kind: EventStart, Speaker: task.From, Content: task.Content})

	for round := 1; round <= o.options.MaxRound; round++ {
		if err := ctx.Err(); err != nil {
			return agent.Message{}, fmt.Errorf(cancelledErrorFormat, round, err)
		}

		last, _ := agent.Last(current.history)
		plannerContext := planner.BuildContext(o.options.Fewshot, current.previousSteps, last, o.options.ContextWindow)
		step, stepReply, err := o.planner.Plan(ctx, plannerContext)
		if err != nil {
			return agent.Message{}, fmt.Errorf(roundPlanErrorFormat, round, err)
		}
		kind := step.Kind()
		logger.Info("step planned",
			zap.Int("round", round),
			zap.String("step", step.Name),
			zap.String("argument", step.Argument),
			zap.String("reason", step.Reason))
		o.record(ctx, logger, Event{SessionID: current.id, Round: round, Kind: EventStep, Step: step.Name, Speaker: o.planner.Name(), Content: stepReply.Content})

		if kind.Terminal() {
			stepReply.Role = agent.RoleAssistant
			stepReply.From = o.Name()
			o.record(ctx, logger, Event{SessionID: current.id, Round: round, Kind: EventResult, Step: step.Name, Speaker: o.Name(), Content: stepReply.Content})
			return stepReply, nil
		}

		speaker := o.speakerOf(last)
		state := RoundState{Step: kind, CoderOutputPending: current.coderOutputPending}
		next, routed := NextSpeaker(o.options.Routes, speaker, state)
		if !routed {
			logger.Warn("no route for step; round stalled",
				zap.Int("round", round),
				zap.String("step", step.Name),
				zap.Bool("recognized", kind != planner.KindUnknown),
				zap.Stringer("speaker", speaker))
			o.record(ctx, logger, Event{SessionID: current.id, Round: round, Kind: EventStall, Step: step.Name, Speaker: speaker.String()})
		} else {
			reply, err := o.exchange(ctx, current, next)
			if err != nil {
				return agent.Message{}, fmt.Errorf(roundExchangeErrorFormat, round, next, err)
			}
			current.history = agent.Append(current.history, reply)
			logger.Debug("participant replied",
				zap.Int("round", round),
				zap.Stringer("from", speaker),
				zap.Stringer("to", next))
			o.record(ctx, logger, Event{SessionID: current.id, Round: round, Kind: EventMessage, Step: step.Name, Speaker: reply.From, Content: reply.Content})
		}

		current.previousSteps = append(current.previousSteps, last, planner.StepMessage(step, ""))
	}

	failStep, _ := planner.Template(planner.KindFail)
	failStep.Reason = fmt.Sprintf(maxRoundReasonFormat, o.options.MaxRound)
	failure := planner.StepMessage(failStep, o.Name())
	logger.Warn("round budget exhausted", zap.Int("max_round", o.options.MaxRound))
	o.record(ctx, logger, Event{SessionID: current.id, Round: o.options.MaxRound, Kind: EventResult, Step: failStep.Name, Speaker: o.Name(), Content: failure.Content})
	return failure, nil
}

func (o *Orchestrator) speakerOf(message agent.Message) Participant {
	switch message.From {
	case o.participants.Coder.Name():
		return ParticipantCoder
	case o.participants.Runner.Name():
		return ParticipantRunner
	default:
		return ParticipantUser
	}
}

// exchange gives one participant the turn and returns its reply.
func (o *Orchestrator) exchange(ctx context.Context, current *session, next Participant) (agent.Message, error) {
	var (
		participant agent.Agent
		input       []agent.Message
	)
	switch next {
	case ParticipantRunner:
		if !current.coderOutputPending {
			return agent.Message{}, fmt.Errorf(noPendingOutputErrorFormat, ErrInvalidRoutingState, o.participants.Runner.Name(), o.participants.Coder.Name())
		}
		runnerInput, err := o.runnerInput(current.history)
		if err != nil {
			return agent.Message{}, err
		}
		participant, input = o.participants.Runner, runnerInput
	case ParticipantCoder:
		participant, input = o.participants.Coder, current.history
	default:
		participant, input = o.participants.User, current.history
	}

	reply, err := participant.GenerateReply(ctx, input)
	if err != nil {
		return agent.Message{}, err
	}
	if strings.TrimSpace(reply.From) == "" {
		reply.From = participant.Name()
	}

	switch next {
	case ParticipantCoder:
		current.coderOutputPending = true
	case ParticipantRunner:
		current.coderOutputPending = false
	}
	return reply, nil
}

// runnerInput is the last coder message alone; the runner never sees older context.
func (o *Orchestrator) runnerInput(history []agent.Message) ([]agent.Message, error) {
	coderMessage, ok := agent.LastFrom(history, o.participants.Coder.Name())
	if !ok {
		return nil, fmt.Errorf(missingCoderErrorFormat, ErrInvalidRoutingState, o.participants.Runner.Name(), o.participants.Coder.Name())
	}
	return []agent.Message{coderMessage}, nil
}

func (o *Orchestrator) record(ctx context.Context, logger *zap.Logger, event Event) {
	if o.options.Recorder == nil {
		return
	}
	event.Time = time.Now().UTC()
	if err := o.options.Recorder.Record(ctx, event); err != nil {
		logger.Warn("record session event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

// Result decodes the step carried by a Solve result.
func Result(message agent.Message) (planner.Step, error) {
	return planner.ParseStep(message.Content)
}
