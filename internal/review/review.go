// Package review repeats generation until a reviewer approves the candidate or
// the retry budget runs out.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/coerce"
)

const DefaultMaxRetry = 3

const (
	generateErrorFormat     = "review loop: generate attempt %d: %w"
	reviewErrorFormat       = "review loop: review attempt %d: %w"
	decodeReviewErrorFormat = "review loop: decode review attempt %d: %w"
)

type Verdict string

const (
	Approve Verdict = "APPROVE"
	Reject  Verdict = "REJECT"
)

var (
	ErrReviewExhausted = errors.New("review exhausted")
	errInvalidVerdict  = errors.New("result must be APPROVE or REJECT")
)

// Result is the structured reply of a reviewer.
type Result struct {
	Result Verdict `json:"result" jsonschema:"review result, must be APPROVE or REJECT"`
	Reason string  `json:"reason,omitempty" jsonschema:"the reason why you reject the code. You don't need to provide reason if you approve the code."`
}

func (r Result) normalized() Verdict {
	return Verdict(strings.ToUpper(strings.TrimSpace(string(r.Result))))
}

func (r Result) Validate() error {
	switch r.normalized() {
	case Approve, Reject:
		return nil
	default:
		return errInvalidVerdict
	}
}

func (r Result) Approved() bool { return r.normalized() == Approve }

// Coerce wraps a reviewer persona so its replies always decode as Result.
func Coerce(reviewer agent.Agent, options coerce.Options) (agent.Agent, error) {
	return coerce.FormatAsJSON[Result](reviewer, options)
}

// Rejection records one rejected candidate and the reviewer's feedback.
type Rejection struct {
	Candidate agent.Message
	Feedback  agent.Message
	Reason    string
}

// Outcome is an approved candidate together with the rejections that preceded it.
type Outcome struct {
	Message    agent.Message
	Rejections []Rejection
}

// ExhaustedError reports that no candidate was approved within the budget.
type ExhaustedError struct {
	Generator  string
	Attempts   int
	Rejections []Rejection
}

func (e *ExhaustedError) Error() string {
	lastReason := ""
	if count := len(e.Rejections); count > 0 {
		lastReason = e.Rejections[count-1].Reason
	}
	return fmt.Sprintf("%s: %s was rejected %d times (last reason: %s)", ErrReviewExhausted, e.Generator, e.Attempts, lastReason)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrReviewExhausted }

// Loop pairs a generator with a reviewer. The reviewer must already produce
// Result JSON, typically via Coerce.
type Loop struct {
	Generator agent.Agent
	Reviewer  agent.Agent
	MaxRetry  int
	Logger    *zap.Logger
}

// Run generates candidates for history until one is approved.
func (l Loop) Run(ctx context.Context, history []agent.Message) (Outcome, error) {
	maxRetry := l.MaxRetry
	if maxRetry <= 0 {
		maxRetry = DefaultMaxRetry
	}
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	conversation := agent.Append(history)
	var rejections []Rejection
	for attempt := 1; attempt <= maxRetry; attempt++ {
		candidate, err := l.Generator.GenerateReply(ctx, conversation)
		if err != nil {
			return Outcome{}, fmt.Errorf(generateErrorFormat, attempt, err)
		}
		feedback, err := l.Reviewer.GenerateReply(ctx, []agent.Message{candidate})
		if err != nil {
			return Outcome{}, fmt.Errorf(reviewErrorFormat, attempt, err)
		}
		result, err := coerce.Decode[Result](feedback.Content)
		if err != nil {
			return Outcome{}, fmt.Errorf(decodeReviewErrorFormat, attempt, err)
		}
		if result.Approved() {
			logger.Debug("candidate approved",
				zap.String("generator", l.Generator.Name()),
				zap.Int("attempt", attempt))
			return Outcome{Message: candidate, Rejections: rejections}, nil
		}

		logger.Info("candidate rejected",
			zap.String("generator", l.Generator.Name()),
			zap.Int("attempt", attempt),
			zap.String("reason", result.Reason))
		feedback.Role = agent.RoleUser
		if feedback.From == "" {
			feedback.From = l.Reviewer.Name()
		}
		rejections = append(rejections, Rejection{Candidate: candidate, Feedback: feedback, Reason: result.Reason})
		conversation = agent.Append(conversation, candidate, feedback)
	}
	return Outcome{}, &ExhaustedError{Generator: l.Generator.Name(), Attempts: maxRetry, Rejections: rejections}
}

// Agent exposes the loop as a participant named name that only ever returns approved messages.
func (l Loop) Agent(name string) agent.Agent {
	return agent.New(name, func(ctx context.Context, messages []agent.Message) (agent.Message, error) {
		outcome, err := l.Run(ctx, messages)
		if err != nil {
			return agent.Message{}, err
		}
		approved := outcome.Message
		approved.Role = agent.RoleAssistant
		approved.From = name
		return approved, nil
	})
}
