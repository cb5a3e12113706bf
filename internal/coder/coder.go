// Package coder builds the code-writing participant: a generator persona whose
// every reply passes a policy review before the orchestrator sees it.
package coder

import (
	"go.uber.org/zap"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/review"
)

// New returns a participant named name that only replies with reviewed code.
// It fails with review.ErrReviewExhausted when maxRetry candidates are rejected.
func New(name string, generator agent.Agent, reviewer agent.Agent, maxRetry int, logger *zap.Logger) agent.Agent {
	loop := review.Loop{
		Generator: generator,
		Reviewer:  reviewer,
		MaxRetry:  maxRetry,
		Logger:    logger,
	}
	return loop.Agent(name)
}
