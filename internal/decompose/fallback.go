package decompose

import "github.com/yungbote/neurathon-mate/internal/domain"

// Fallback is the fixed plan served whenever a real plan cannot be produced.
// Each call returns a fresh value.
func Fallback() domain.Plan {
	return domain.Plan{
		Roadmap:   "You can do this in just a few minutes.",
		TotalTime: "~10 mins",
		Steps: []domain.Step{
			{Time: "1 min", Action: "Breathe & Start", Tip: "Just the first step!"},
			{Time: "5 mins", Action: "Do the main part", Tip: "Keep going!"},
		},
	}
}
