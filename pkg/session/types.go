// Package session defines the records produced by one completed advisory
// interaction and the canonical text derived from them for embedding.
package session

import "maps"

// RiskLevel is a client's stated risk aversion.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// TaskType is the kind of work an analyst task asks for.
type TaskType string

const (
	TaskResearch  TaskType = "research"
	TaskCompare   TaskType = "compare"
	TaskSummarize TaskType = "summarize"
)

// Supported reports whether the analyst knows how to execute t.
func (t TaskType) Supported() bool {
	switch t {
	case TaskResearch, TaskCompare, TaskSummarize:
		return true
	}
	return false
}

const (
	MinAge = 18
	MaxAge = 100
)

// Profile describes the client being advised.
type Profile struct {
	Name           string             `json:"name"`
	Age            int                `json:"age"`
	RiskAversion   RiskLevel          `json:"risk_aversion"`
	Assets         float64            `json:"assets"`
	Investments    map[string]float64 `json:"investments"`
	FinancialGoals []FinancialGoal    `json:"financial_goals"`
}

// FinancialGoal is a single savings target of a client.
type FinancialGoal struct {
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Timeline string  `json:"timeline"`
}

// QAPair is one clarifying question and the client's answer.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Task is a unit of analyst work together with its result.
type Task struct {
	TaskDescription string   `json:"task_description"`
	TaskType        TaskType `json:"task_type"`
	Context         string   `json:"context"`
	Result          string   `json:"result"`
}

// Record is one completed advisory session. Records are immutable once
// written to the session log.
type Record struct {
	SessionID           string   `json:"session_id"`
	ClientName          string   `json:"client_name"`
	Profile             Profile  `json:"profile"`
	QATranscript        []QAPair `json:"qa_transcript"`
	Tasks               []Task   `json:"tasks"`
	FinalRecommendation string   `json:"final_recommendation"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Profile = r.Profile.Clone()
	if r.QATranscript != nil {
		out.QATranscript = append([]QAPair(nil), r.QATranscript...)
	}
	if r.Tasks != nil {
		out.Tasks = append([]Task(nil), r.Tasks...)
	}
	return out
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	if p.Investments != nil {
		out.Investments = maps.Clone(p.Investments)
	}
	if p.FinancialGoals != nil {
		out.FinancialGoals = append([]FinancialGoal(nil), p.FinancialGoals...)
	}
	return out
}
