package prompts

import "fmt"

// FeedbackPrompt системный промпт модели, оценивающей интервью
const FeedbackPrompt = `You are grading a job interview between an AI interviewer (assistant) and a candidate (user).
Read the conversation and rate the candidate from 1 to 10 in each category.
Respond strictly in JSON, wrapped in a json code block:
{
  "feedback": {
    "rating": {
      "TechnicalSkills": <number>,
      "Communication": <number>,
      "ProblemSolving": <number>,
      "Experience": <number>,
      "Behavioral": <number>
    },
    "summary": "<three sentence summary of the interview>",
    "recommendation": "<Recommended | Not recommended>",
    "recommendationMsg": "<one line explaining the recommendation>"
  }
}`

// GenerateFeedbackUserPrompt оборачивает сериализованный диалог
func GenerateFeedbackUserPrompt(conversation string) string {
	return fmt.Sprintf("Interview conversation:\n%s", conversation)
}
