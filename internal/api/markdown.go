package api

import (
	"regexp"
	"strings"
)

var jsonBlockPattern = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// CleanJSONResponse удаляет markdown-ограждения ```json и ``` из ответа модели
func CleanJSONResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")

	return strings.TrimSpace(response)
}

// ExtractJSONBlock возвращает содержимое первого блока ```json ... ```.
// Второе значение false, если блока нет.
func ExtractJSONBlock(response string) (string, bool) {
	match := jsonBlockPattern.FindStringSubmatch(response)
	if len(match) < 2 {
		return "", false
	}
	block := strings.TrimSpace(match[1])
	if block == "" {
		return "", false
	}
	return block, true
}
