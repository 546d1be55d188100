package knowledge_test

import (
	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/session"
)

func aliceProfile() session.Profile {
	return session.Profile{
		Name:         "Alice",
		Age:          45,
		RiskAversion: session.RiskMedium,
		Assets:       250000,
		Investments: map[string]float64{
			"stocks": 180000,
			"bonds":  50000,
			"cash":   20000,
		},
		FinancialGoals: []session.FinancialGoal{
			{Title: "Retirement", Amount: 1000000, Timeline: "20 years"},
		},
	}
}

// aliceSessions are three past sessions: one about growth stocks, one about
// a treasury bond ladder and one about municipal bonds.
func aliceSessions() []knowledge.SaveSessionInput {
	return []knowledge.SaveSessionInput{
		{
			SessionID:  "s-001",
			ClientName: "Alice",
			Profile:    aliceProfile(),
			QATranscript: []session.QAPair{
				{Question: "What is your investment horizon?", Answer: "About twenty years until retirement."},
			},
			Tasks: []session.Task{
				{
					TaskDescription: "Research technology growth stocks",
					TaskType:        session.TaskResearch,
					Result:          "Large cap tech shares have outperformed.",
				},
			},
			FinalRecommendation: "Increase the allocation to technology growth stocks.",
		},
		{
			SessionID:  "s-002",
			ClientName: "Alice",
			Profile:    aliceProfile(),
			QATranscript: []session.QAPair{
				{Question: "How do you feel about fixed income?", Answer: "I want steady interest payments."},
			},
			Tasks: []session.Task{
				{
					TaskDescription: "Compare treasury bond ladders",
					TaskType:        session.TaskCompare,
					Result:          "A five year ladder balances yield and liquidity.",
				},
			},
			FinalRecommendation: "Build a treasury bond ladder for steady income.",
		},
		{
			SessionID:  "s-003",
			ClientName: "Alice",
			Profile:    aliceProfile(),
			QATranscript: []session.QAPair{
				{Question: "Do you care about tax efficiency?", Answer: "Yes, I am in a high tax bracket."},
			},
			Tasks: []session.Task{
				{
					TaskDescription: "Research municipal bond funds",
					TaskType:        session.TaskResearch,
					Result:          "Municipal bond funds offer tax free income.",
				},
			},
			FinalRecommendation: "Move part of the bond allocation into municipal bonds.",
		},
	}
}

func minimalInput(client, id string) knowledge.SaveSessionInput {
	return knowledge.SaveSessionInput{
		SessionID:  id,
		ClientName: client,
		Profile: session.Profile{
			Name:         client,
			Age:          30,
			RiskAversion: session.RiskLow,
			Assets:       10000,
		},
		FinalRecommendation: "Keep saving.",
	}
}

// legacyDocument is a session file as earlier versions wrote it: no schema
// version and timestamp session ids.
const legacyDocument = `{
  "clients": {
    "John Doe": {
      "sessions": [
        {
          "session_id": "20240101_120000",
          "client_name": "John Doe",
          "profile": {
            "name": "John Doe",
            "age": 35,
            "risk_aversion": "medium",
            "assets": 100000,
            "investments": {"stocks": 50000, "bonds": 30000, "cash": 20000},
            "financial_goals": [{"title": "Retirement", "amount": 1000000, "timeline": "30 years"}]
          },
          "qa_transcript": [{"question": "What is your horizon?", "answer": "Thirty years."}],
          "tasks": [],
          "final_recommendation": "Invest in index funds"
        }
      ]
    }
  }
}`
