package coder

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/review"
)

var (
	fencedBlock       = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n(.*?)```")
	mainFunction      = regexp.MustCompile(`(?m)^\s*func\s+main\s*\(`)
	packageClause     = regexp.MustCompile(`(?m)^\s*package\s+\w+`)
	deferredIdleClose = regexp.MustCompile(`defer\s+[\w.]+\.CloseIdleConnections\s*\(`)
	acceptedLanguages = map[string]bool{"go": true, "golang": true}
)

// CheckPolicy applies the structural rules a coder reply must satisfy.
func CheckPolicy(content string) review.Result {
	blocks := fencedBlock.FindAllStringSubmatch(content, -1)
	switch {
	case len(blocks) == 0:
		return reject("The reply should contain one go code block, but found none")
	case len(blocks) > 1:
		return reject(fmt.Sprintf("The code should have exactly one go code block, but found %d", len(blocks)))
	}

	language := strings.ToLower(blocks[0][1])
	code := blocks[0][2]
	switch {
	case !acceptedLanguages[language]:
		return reject(fmt.Sprintf("The code block should be a go code block, but found %q", blocks[0][1]))
	case packageClause.MatchString(code):
		return reject("The code should be top-level statements without a package clause")
	case mainFunction.MatchString(code):
		return reject("The code should be top-level statements, not inside a func main")
	case deferredIdleClose.MatchString(code):
		return reject("Don't defer CloseIdleConnections on the http client; create it with client := &http.Client{}")
	}
	return review.Result{Result: review.Approve}
}

func reject(reason string) review.Result {
	return review.Result{Result: review.Reject, Reason: reason}
}

// PolicyReviewer reviews candidates with CheckPolicy instead of a model.
type PolicyReviewer struct {
	name string
}

func NewPolicyReviewer(name string) PolicyReviewer {
	return PolicyReviewer{name: name}
}

func (p PolicyReviewer) Name() string { return p.name }

func (p PolicyReviewer) GenerateReply(ctx context.Context, messages []agent.Message) (agent.Message, error) {
	last, _ := agent.Last(messages)
	encoded, err := json.Marshal(CheckPolicy(last.Content))
	if err != nil {
		return agent.Message{}, err
	}
	return agent.NewAssistantMessage(p.name, string(encoded)), nil
}
