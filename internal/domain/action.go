package domain

// Action is a recommended precaution.
type Action struct {
	ID           string `json:"id"`
	Priority     string `json:"priority"` // "immediate", "today", "this-week"
	Category     string `json:"category"` // "personal", "home", "travel", "work"
	Title        string `json:"title"`
	Description  string `json:"description"`
	TimeEstimate string `json:"timeEstimate,omitempty"`
}

var baseActions = []Action{
	{ID: "1", Priority: "immediate", Category: "personal", Title: "Stay Hydrated", Description: "Drink water regularly, avoid alcohol and caffeine", TimeEstimate: "Ongoing"},
	{ID: "2", Priority: "immediate", Category: "personal", Title: "Limit Outdoor Activities", Description: "Avoid strenuous outdoor exercise between 12-4 PM", TimeEstimate: "2-3 days"},
	{ID: "3", Priority: "today", Category: "home", Title: "Prepare Cooling Systems", Description: "Check AC functionality, close curtains during peak heat", TimeEstimate: "30 minutes"},
	{ID: "4", Priority: "today", Category: "travel", Title: "Plan Indoor Routes", Description: "Use air-conditioned transportation, avoid long walks", TimeEstimate: "15 minutes"},
	{ID: "5", Priority: "this-week", Category: "home", Title: "Emergency Kit Check", Description: "Ensure you have flashlights, batteries, and first aid supplies", TimeEstimate: "45 minutes"},
	{ID: "6", Priority: "today", Category: "work", Title: "Adjust Work Schedule", Description: "Consider working during cooler morning hours if possible", TimeEstimate: "5 minutes"},
}

var urgentActions = []Action{
	{ID: "7", Priority: "immediate", Category: "personal", Title: "Check on Vulnerable Neighbors", Description: "Elderly and children are at higher risk during extreme heat", TimeEstimate: "15 minutes"},
	{ID: "8", Priority: "immediate", Category: "home", Title: "Identify Cooling Centers", Description: "Know locations of air-conditioned public spaces nearby", TimeEstimate: "10 minutes"},
}

// RecommendActions returns the actions for an overall severity. High and
// extreme add the urgent actions after the base list.
func RecommendActions(s Severity) []Action {
	n := len(baseActions)
	if s == SeverityHigh || s == SeverityExtreme {
		n += len(urgentActions)
	}
	out := make([]Action, 0, n)
	out = append(out, baseActions...)
	if s == SeverityHigh || s == SeverityExtreme {
		out = append(out, urgentActions...)
	}
	return out
}
