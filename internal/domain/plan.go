package domain

// Step is one actionable sub-task. Field order matches the wire shape
// returned by the generation prompt.
type Step struct {
	Time   string `json:"time"`
	Action string `json:"action"`
	Tip    string `json:"tip"`
}

// Plan is a decomposed task. Steps are in execution order.
type Plan struct {
	Roadmap   string `json:"roadmap"`
	TotalTime string `json:"total_time"`
	Steps     []Step `json:"steps"`
}

// Active reports whether the plan satisfies the non-empty steps invariant.
func (p *Plan) Active() bool {
	return p != nil && len(p.Steps) > 0
}

// Clone returns a deep copy so callers can never alias a shared plan.
func (p Plan) Clone() Plan {
	out := p
	if p.Steps != nil {
		out.Steps = make([]Step, len(p.Steps))
		copy(out.Steps, p.Steps)
	}
	return out
}

// DecomposeRequest is the body of POST /decompose.
type DecomposeRequest struct {
	Task            string         `json:"task"`
	UserPreferences map[string]any `json:"userPreferences,omitempty"`
	UserTriggers    string         `json:"userTriggers,omitempty"`
}
