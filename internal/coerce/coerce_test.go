package coerce_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/coerce"
)

type verdict struct {
	Result string `json:"result" jsonschema:"APPROVE or REJECT"`
	Reason string `json:"reason,omitempty" jsonschema:"why the result was chosen"`
}

func (v verdict) Validate() error {
	if v.Result != "APPROVE" && v.Result != "REJECT" {
		return errors.New("result must be APPROVE or REJECT")
	}
	return nil
}

type scriptedAgent struct {
	name     string
	replies  []string
	received [][]agent.Message
}

func (s *scriptedAgent) Name() string { return s.name }

func (s *scriptedAgent) GenerateReply(ctx context.Context, messages []agent.Message) (agent.Message, error) {
	s.received = append(s.received, messages)
	index := len(s.received) - 1
	if index >= len(s.replies) {
		index = len(s.replies) - 1
	}
	return agent.NewAssistantMessage(s.name, s.replies[index]), nil
}

func TestFormatAsJSONReturnsValidReplyUnchanged(t *testing.T) {
	inner := &scriptedAgent{name: "reviewer", replies: []string{`{"result":"APPROVE"}`}}
	formatter := &scriptedAgent{name: "helper", replies: []string{`{"result":"REJECT"}`}}

	wrapped, err := coerce.FormatAsJSON[verdict](inner, coerce.Options{MaxRetry: 3, Formatter: formatter})
	require.NoError(t, err)

	reply, err := agent.Send(context.Background(), wrapped, "review this")
	require.NoError(t, err)
	assert.Equal(t, `{"result":"APPROVE"}`, reply.Content)
	assert.Len(t, inner.received, 1)
	assert.Empty(t, formatter.received)
}

func TestFormatAsJSONPerformsExactlyMaxRetryRepairs(t *testing.T) {
	testCases := []struct {
		name     string
		maxRetry int
	}{
		{name: "one repair", maxRetry: 1},
		{name: "three repairs", maxRetry: 3},
		{name: "five repairs", maxRetry: 5},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			inner := &scriptedAgent{name: "planner", replies: []string{"I think we should write code"}}
			formatter := &scriptedAgent{name: "helper", replies: []string{"still not json"}}

			wrapped, err := coerce.FormatAsJSON[verdict](inner, coerce.Options{MaxRetry: testCase.maxRetry, Formatter: formatter})
			require.NoError(t, err)

			_, err = agent.Send(context.Background(), wrapped, "plan")
			require.Error(t, err)
			assert.ErrorIs(t, err, coerce.ErrFormatFailure)

			var formatErr *coerce.FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, testCase.maxRetry, formatErr.Attempts)
			assert.Equal(t, "still not json", formatErr.LastContent)
			assert.Len(t, inner.received, 1)
			assert.Len(t, formatter.received, testCase.maxRetry)
		})
	}
}

func TestFormatAsJSONRepairPromptCarriesTextSchemaAndError(t *testing.T) {
	inner := &scriptedAgent{name: "reviewer", replies: []string{"looks good to me"}}
	formatter := &scriptedAgent{name: "helper", replies: []string{`{"result":"APPROVE"}`}}

	wrapped, err := coerce.FormatAsJSON[verdict](inner, coerce.Options{MaxRetry: 2, Formatter: formatter})
	require.NoError(t, err)

	reply, err := agent.Send(context.Background(), wrapped, "review")
	require.NoError(t, err)
	assert.Equal(t, "reviewer", reply.From)
	assert.Equal(t, agent.RoleAssistant, reply.Role)

	require.Len(t, formatter.received, 1)
	require.Len(t, formatter.received[0], 1)
	prompt := formatter.received[0][0].Content
	assert.Contains(t, prompt, "looks good to me")
	assert.Contains(t, prompt, `"result"`)
	assert.Contains(t, prompt, "```error")
	assert.Contains(t, prompt, "invalid character")
}

func TestFormatAsJSONDefaultsFormatterToInnerAgent(t *testing.T) {
	inner := &scriptedAgent{name: "reviewer", replies: []string{"nope", `{"result":"REJECT","reason":"two code blocks"}`}}

	wrapped, err := coerce.FormatAsJSON[verdict](inner, coerce.Options{MaxRetry: 1})
	require.NoError(t, err)

	reply, err := agent.Send(context.Background(), wrapped, "review")
	require.NoError(t, err)
	assert.Len(t, inner.received, 2)

	decoded, err := coerce.Decode[verdict](reply.Content)
	require.NoError(t, err)
	assert.Equal(t, "two code blocks", decoded.Reason)
}

func TestFormatAsJSONRejectsValidationFailures(t *testing.T) {
	inner := &scriptedAgent{name: "reviewer", replies: []string{`{"result":"MAYBE"}`}}
	formatter := &scriptedAgent{name: "helper", replies: []string{`{"result":"APPROVE"}`}}

	wrapped, err := coerce.FormatAsJSON[verdict](inner, coerce.Options{MaxRetry: 1, Formatter: formatter})
	require.NoError(t, err)

	reply, err := agent.Send(context.Background(), wrapped, "review")
	require.NoError(t, err)
	assert.Equal(t, `{"result":"APPROVE"}`, reply.Content)
	assert.Contains(t, formatter.received[0][0].Content, "result must be APPROVE or REJECT")
}

func TestFormatAsJSONPropagatesTransportErrors(t *testing.T) {
	transportErr := errors.New("connection reset")
	inner := agent.New("planner", func(ctx context.Context, messages []agent.Message) (agent.Message, error) {
		return agent.Message{}, transportErr
	})

	wrapped, err := coerce.FormatAsJSON[verdict](inner, coerce.Options{MaxRetry: 3})
	require.NoError(t, err)

	_, err = agent.Send(context.Background(), wrapped, "plan")
	assert.ErrorIs(t, err, transportErr)
	assert.NotErrorIs(t, err, coerce.ErrFormatFailure)
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name      string
		content   string
		expectErr bool
		expected  verdict
	}{
		{name: "plain json", content: `{"result":"APPROVE"}`, expected: verdict{Result: "APPROVE"}},
		{name: "fenced json", content: "```json\n{\"result\":\"REJECT\",\"reason\":\"r\"}\n```", expected: verdict{Result: "REJECT", Reason: "r"}},
		{name: "bare fence", content: "```\n{\"result\":\"APPROVE\"}\n```", expected: verdict{Result: "APPROVE"}},
		{name: "empty", content: "   ", expectErr: true},
		{name: "trailing text", content: `{"result":"APPROVE"} thanks`, expectErr: true},
		{name: "trailing closing brace", content: `{"result":"APPROVE"}}`, expectErr: true},
		{name: "trailing closing bracket", content: `{"result":"APPROVE"}]`, expectErr: true},
		{name: "second value", content: `{"result":"APPROVE"} {"result":"REJECT"}`, expectErr: true},
		{name: "invalid verdict", content: `{"result":"OK"}`, expectErr: true},
		{name: "prose", content: "approve", expectErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			decoded, err := coerce.Decode[verdict](testCase.content)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, decoded)
		})
	}
}

func TestFormatAsJSONStripsFenceFromAcceptedReply(t *testing.T) {
	inner := &scriptedAgent{name: "reviewer", replies: []string{"```json\n{\"result\":\"APPROVE\"}\n```"}}

	wrapped, err := coerce.FormatAsJSON[verdict](inner, coerce.Options{MaxRetry: 1})
	require.NoError(t, err)

	reply, err := agent.Send(context.Background(), wrapped, "review")
	require.NoError(t, err)
	assert.Equal(t, `{"result":"APPROVE"}`, reply.Content)
	assert.Len(t, inner.received, 1)
}

func TestSchemaForDescribesFields(t *testing.T) {
	schema, err := coerce.SchemaFor[verdict]()
	require.NoError(t, err)
	assert.Contains(t, schema, `"result"`)
	assert.Contains(t, schema, "APPROVE or REJECT")
}
