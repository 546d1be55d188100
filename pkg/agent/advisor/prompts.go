package advisor

const questionsPrompt = `You are a financial advisor. Generate 1-3 clarifying questions based on the client profile and any follow-up questions.
Client Profile:
%s
Risk Aversion: %s
%s
Respond in JSON array of questions only.`

const tasksPrompt = `You are a senior financial advisor preparing tasks for an Analyst Agent.

Client Profile:
%s

Clarifying Q&A:
%s

User Questions:
%s

Task:
Generate 3 to 5 actionable research tasks for an Analyst Agent. Each task should include:
- task_description (string)
- task_type (research, compare, summarize) - these are the only task types allowed
- context (brief string explaining why this task is needed)
STRICTLY provide the tasks as a JSON array, without any additional commentary or text outside the array.

Example Tasks:
%s`

const advicePrompt = `You are a financial advisor. Based on profile, Q&A, task results, and past sessions, give one actionable recommendation.
Profile: %s
QA: %s
Task Results:
%s
Context from past sessions:
%s`
