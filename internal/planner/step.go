package planner

import (
	"encoding/json"
	"errors"
	"strings"
)

// Kind is the closed set of steps the orchestrator understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindNeedInfo
	KindApproval
	KindWriteCode
	KindRunCode
	KindFixError
	KindSucceed
	KindFail
)

var kindNames = map[Kind]string{
	KindNeedInfo:  "NeedInfo",
	KindApproval:  "Approval",
	KindWriteCode: "WriteCode",
	KindRunCode:   "RunCode",
	KindFixError:  "FixError",
	KindSucceed:   "Succeed",
	KindFail:      "Fail",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether the step ends a session.
func (k Kind) Terminal() bool {
	return k == KindSucceed || k == KindFail
}

// KindOf maps a step name to its kind by exact comparison with the known
// step names. Any other spelling maps to KindUnknown.
func KindOf(name string) Kind {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind
		}
	}
	return KindUnknown
}

var errMissingStepName = errors.New("step name is empty")

// Step is one planner decision.
type Step struct {
	Name        string `json:"name" jsonschema:"the name of the step"`
	Description string `json:"description,omitempty" jsonschema:"the description of the step"`
	Argument    string `json:"argument,omitempty" jsonschema:"the argument of the step"`
	Reason      string `json:"reason,omitempty" jsonschema:"the brief reason of why you create step"`
}

// UnmarshalJSON accepts "input" as an alias for "argument"; the planner prompt
// asks for "input" while the schema names the field "argument".
func (s *Step) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Argument    *string `json:"argument"`
		Input       *string `json:"input"`
		Reason      string  `json:"reason"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Step{Name: wire.Name, Description: wire.Description, Reason: wire.Reason}
	switch {
	case wire.Argument != nil:
		s.Argument = *wire.Argument
	case wire.Input != nil:
		s.Argument = *wire.Input
	}
	return nil
}

func (s Step) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errMissingStepName
	}
	return nil
}

func (s Step) Kind() Kind { return KindOf(s.Name) }

var templates = map[Kind]Step{
	KindNeedInfo:  {Name: "NeedInfo", Description: "Ask for more information when details are not enough or unclear"},
	KindApproval:  {Name: "Approval", Description: "Ask for approval before running code"},
	KindWriteCode: {Name: "WriteCode", Description: "Write code to resolve the task"},
	KindRunCode:   {Name: "RunCode", Description: "Run the code when the code is available"},
	KindFixError:  {Name: "FixError", Description: "Fix the error in the code"},
	KindSucceed:   {Name: "Succeed", Description: "The task has been resolved"},
	KindFail:      {Name: "Fail", Description: "The task has not been resolved"},
}

// Template returns the catalog entry for kind.
func Template(kind Kind) (Step, bool) {
	step, ok := templates[kind]
	return step, ok
}

// Catalog is the ordered list of steps offered to the planner.
type Catalog []Step

// DefaultCatalog lists the code interpreter steps. Fail is terminal but not offered.
func DefaultCatalog() Catalog {
	kinds := []Kind{KindNeedInfo, KindApproval, KindWriteCode, KindRunCode, KindFixError, KindSucceed}
	catalog := make(Catalog, 0, len(kinds))
	for _, kind := range kinds {
		catalog = append(catalog, templates[kind])
	}
	return catalog
}

// Contains reports whether the catalog offers a step with the given name.
func (c Catalog) Contains(name string) bool {
	for _, step := range c {
		if step.Name == name {
			return true
		}
	}
	return false
}
