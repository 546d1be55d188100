package knowledge

import "github.com/papercomputeco/advisor/pkg/session"

// SaveSessionInput carries a completed session. SessionID may be left empty
// to have one generated.
type SaveSessionInput struct {
	SessionID           string           `json:"session_id,omitempty"`
	ClientName          string           `json:"client_name"`
	Profile             session.Profile  `json:"profile"`
	QATranscript        []session.QAPair `json:"qa_transcript"`
	Tasks               []session.Task   `json:"tasks"`
	FinalRecommendation string           `json:"final_recommendation"`
}

// Record returns the session record described by in, deep-copied.
func (in SaveSessionInput) Record() session.Record {
	return session.Record{
		SessionID:           in.SessionID,
		ClientName:          in.ClientName,
		Profile:             in.Profile,
		QATranscript:        in.QATranscript,
		Tasks:               in.Tasks,
		FinalRecommendation: in.FinalRecommendation,
	}.Clone()
}

// Entry is the side record kept for every index position.
type Entry struct {
	ClientName string
	SessionID  string
	Text       string
}

// Match is one retrieval result.
type Match struct {
	ClientName string  `json:"client_name"`
	SessionID  string  `json:"session_id"`
	Text       string  `json:"text"`
	Distance   float32 `json:"distance"`
}

// Stats summarizes the store.
type Stats struct {
	Clients    int    `json:"clients"`
	Sessions   int    `json:"sessions"`
	Indexed    int    `json:"indexed"`
	Behind     int    `json:"behind"`
	Dimensions uint   `json:"dimensions"`
	Path       string `json:"path"`
}
