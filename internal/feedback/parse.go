package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"interview-voice-grader/internal/api"
)

// ErrMalformedFeedback ответ модели пустой, не JSON или без оценок
var ErrMalformedFeedback = errors.New("feedback: malformed scoring response")

// DefaultRecommendation пишется в результат, если модель не дала рекомендацию
const DefaultRecommendation = "Not recommended"

// Feedback разобранный ответ модели.
// Raw хранит объект ровно в том виде, в котором его вернула модель.
type Feedback struct {
	Raw               json.RawMessage
	Rating            map[string]any
	Summary           string
	Recommendation    string
	RecommendationMsg string
}

type feedbackBody struct {
	Rating            json.RawMessage `json:"rating"`
	Summary           string          `json:"summary"`
	Recommendation    string          `json:"recommendation"`
	RecommendationMsg string          `json:"recommendationMsg"`
}

type envelope struct {
	feedbackBody
	Feedback *feedbackBody `json:"feedback"`
}

// ParseFeedback снимает markdown-ограждения и разбирает оценку.
// rating принимается как на верхнем уровне, так и внутри feedback.
func ParseFeedback(content string) (*Feedback, error) {
	cleaned := api.CleanJSONResponse(content)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedFeedback)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(cleaned)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
	}
	if !strings.HasPrefix(compact.String(), "{") {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedFeedback)
	}

	var env envelope
	if err := json.Unmarshal(compact.Bytes(), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
	}

	body := env.feedbackBody
	if env.Feedback != nil && len(env.Feedback.Rating) > 0 {
		body = *env.Feedback
	}

	rating, err := decodeRating(body.Rating)
	if err != nil {
		return nil, err
	}

	return &Feedback{
		Raw:               json.RawMessage(compact.Bytes()),
		Rating:            rating,
		Summary:           body.Summary,
		Recommendation:    strings.TrimSpace(body.Recommendation),
		RecommendationMsg: body.RecommendationMsg,
	}, nil
}

func decodeRating(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: rating is missing", ErrMalformedFeedback)
	}
	var rating map[string]any
	if err := json.Unmarshal(raw, &rating); err != nil {
		return nil, fmt.Errorf("%w: rating is not an object", ErrMalformedFeedback)
	}
	return rating, nil
}

// RecommendationOrDefault рекомендация модели или DefaultRecommendation
func (f *Feedback) RecommendationOrDefault() string {
	if f == nil || f.Recommendation == "" {
		return DefaultRecommendation
	}
	return f.Recommendation
}

// OverallScore среднее числовых оценок, округленное до целого.
// Нечисловые значения пропускаются, без оценок результат 0.
func OverallScore(rating map[string]any) int {
	var sum float64
	var n int
	for _, v := range rating {
		var f float64
		switch val := v.(type) {
		case float64:
			f = val
		case int:
			f = float64(val)
		case json.Number:
			parsed, err := val.Float64()
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Floor(sum/float64(n) + 0.5))
}

// RatingFromRecord достает оценки из сохраненного транскрипта результата
func RatingFromRecord(stored json.RawMessage) map[string]any {
	fb, err := ParseFeedback(string(stored))
	if err != nil {
		return nil
	}
	return fb.Rating
}
