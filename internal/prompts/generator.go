package prompts

import (
	"fmt"
	"strings"
)

// InterviewerPrompt описывает то, что нужно ассистенту для системного промпта
type InterviewerPrompt struct {
	CandidateName string
	JobPosition   string
	Questions     []string
	MinQuestions  int
	MaxQuestions  int
}

// GenerateInterviewerPrompt собирает системный промпт голосового интервьюера
func GenerateInterviewerPrompt(p InterviewerPrompt) string {
	var prompt strings.Builder

	minQ, maxQ := p.MinQuestions, p.MaxQuestions
	if minQ <= 0 {
		minQ = 5
	}
	if maxQ < minQ {
		maxQ = minQ
	}

	prompt.WriteString("You are an AI voice assistant conducting interviews.\n")
	prompt.WriteString("Your job is to ask candidates provided interview questions, assess their responses.\n")
	prompt.WriteString("Begin the conversation with a friendly introduction, setting a relaxed yet professional tone. Example:\n")
	prompt.WriteString(fmt.Sprintf("\"Hey %s! Welcome to your %s interview. Let's get started with a few questions!\"\n",
		p.CandidateName, p.JobPosition))
	prompt.WriteString("Ask one question at a time and wait for the candidate's response before proceeding. ")
	prompt.WriteString("Keep the questions clear and concise. Below are the questions, ask them one by one:\n")
	prompt.WriteString("Questions:\n")
	for i, q := range p.Questions {
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
	}
	prompt.WriteString("If the candidate struggles, offer hints or rephrase the question without giving away the answer.\n")
	prompt.WriteString("Provide brief, encouraging feedback after each answer.\n")
	prompt.WriteString("Keep the conversation natural and engaging, use casual phrases like \"Alright, next up...\".\n")
	prompt.WriteString(fmt.Sprintf("After %d-%d questions, wrap up the interview smoothly by summarizing their performance.\n", minQ, maxQ))
	prompt.WriteString("End on a positive note.\n")
	prompt.WriteString("Key Guidelines:\n")
	prompt.WriteString("- Be friendly, engaging, and witty\n")
	prompt.WriteString("- Keep responses short and natural, like a real conversation\n")
	prompt.WriteString("- Adapt based on the candidate's confidence level\n")
	prompt.WriteString(fmt.Sprintf("- Ensure the interview remains focused on %s\n", p.JobPosition))

	return strings.TrimSpace(prompt.String())
}

// GenerateFirstMessage подставляет имя кандидата и позицию в шаблон приветствия
func GenerateFirstMessage(template, candidateName, jobPosition string) string {
	r := strings.NewReplacer("{{name}}", candidateName, "{{position}}", jobPosition)
	return r.Replace(template)
}
