package harness

// StepResult is the outcome of one step.
type StepResult struct {
	Query string `json:"query"`

	// Output is what the REPL would print: a table, a scalar, or
	// "Error: ..." for a failed query.
	Output string `json:"output"`

	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	Name string `json:"name"`

	// Pass is true when every step passed.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Errors collects every failed check, prefixed with its step.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddStep records a step and folds its errors into the result.
func (r *Result) AddStep(step StepResult) {
	r.Steps = append(r.Steps, step)
	for _, e := range step.Errors {
		r.AddError(e)
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
