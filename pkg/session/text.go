package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section labels of the canonical text, in output order.
const (
	SectionProfile = "Profile:"
	SectionQA      = "QA:"
	SectionTasks   = "Tasks:"
	SectionAdvice  = "Advice:"
)

// CanonicalText derives the text that represents a record in the vector
// index. The output only depends on the record's content: the profile is
// serialized with encoding/json (fixed field order, sorted map keys) and the
// sections always appear as Profile, QA, Tasks, Advice.
func CanonicalText(r Record) (string, error) {
	profile, err := json.Marshal(r.Profile)
	if err != nil {
		return "", fmt.Errorf("serializing profile: %w", err)
	}

	var b strings.Builder

	b.WriteString(SectionProfile)
	b.WriteByte('\n')
	b.Write(profile)
	b.WriteByte('\n')

	b.WriteString(SectionQA)
	b.WriteByte('\n')
	for _, qa := range r.QATranscript {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
	}

	b.WriteString(SectionTasks)
	b.WriteByte('\n')
	for _, t := range r.Tasks {
		fmt.Fprintf(&b, "%s: %s\n", t.TaskDescription, t.Result)
	}

	b.WriteString(SectionAdvice)
	b.WriteByte('\n')
	b.WriteString(r.FinalRecommendation)

	return b.String(), nil
}
