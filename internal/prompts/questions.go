package prompts

import "fmt"

// QuestionRequest параметры генерации набора вопросов
type QuestionRequest struct {
	JobPosition    string `json:"jobposition"`
	JobDescription string `json:"jobdescription"`
	Duration       string `json:"duration"`
	Type           string `json:"type"`
}

// GenerateQuestionPrompt строит промпт для нового списка вопросов
func GenerateQuestionPrompt(req QuestionRequest) string {
	return fmt.Sprintf(`You are an expert technical interviewer.
Based on the following inputs, generate a well-structured list of high-quality interview questions:

Job Title: %s
Job Description: %s
Interview Duration: %s
Interview Type: %s

Your task:
- Analyze the job description to identify key responsibilities, required skills, and expected experience.
- Generate a list of interview questions that fits the interview duration.
- Adjust the number and depth of questions to match the interview duration.
- Ensure the questions match the tone and structure of a real-life %s interview.

Return the result in a json code block with this shape:
`+"```json"+`
{
  "interviewQuestions": [
    { "question": "", "type": "Technical/Behavioral/Experience/Problem Solving/Leadership" }
  ]
}
`+"```"+`
Generate fresh questions, different from any previous run.`,
		req.JobPosition, req.JobDescription, req.Duration, req.Type, req.Type)
}
