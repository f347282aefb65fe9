// Package scoring implements the aggregation engine shared by every
// framework. All functions are pure: results depend only on the supplied
// catalog and answers, so cached averages can be recomputed at any time
// without drift.
package scoring

import (
	"math"

	"github.com/noah-isme/secura-go-api/internal/models"
)

// DefaultAnswerLabel is returned when a mark cannot be resolved against a
// question's option list (unanswered questions, mark 0, or marks beyond the
// list).
const DefaultAnswerLabel = "No"

// GroupAverage holds the aggregate for one grouping key (NIST function,
// HIPAA category, C2M2 domain).
type GroupAverage struct {
	Key       string
	Questions int
	Marks     int
	Average   float64
}

// AggregateResult is the full outcome of scoring one evaluation against its
// framework catalog.
type AggregateResult struct {
	TotalQuestions int
	TotalMarks     int
	Answered       int
	RawAverage     float64
	Average        float64
	Groups         []GroupAverage
}

// ComputeAggregate scores an evaluation. Every catalog question contributes a
// mark: the stored answer's mark when one exists, otherwise the framework's
// baseline mark. Unanswered questions are deliberately not zero-scored so a
// partial draft is neither punished nor rewarded.
//
// Group order follows the first appearance of each key in the catalog, never
// the iteration order of the answer map. An empty catalog yields averages of
// zero rather than a division by zero.
func ComputeAggregate(questions []models.Question, answers map[uint]models.Answer, baseline int) AggregateResult {
	result := AggregateResult{TotalQuestions: len(questions)}

	groupIndex := make(map[string]int)
	groups := make([]GroupAverage, 0)

	for _, question := range questions {
		mark := baseline
		if answer, ok := answers[question.ID]; ok {
			mark = answer.Mark
			result.Answered++
		}
		result.TotalMarks += mark

		idx, seen := groupIndex[question.GroupKey]
		if !seen {
			idx = len(groups)
			groupIndex[question.GroupKey] = idx
			groups = append(groups, GroupAverage{Key: question.GroupKey})
		}
		groups[idx].Questions++
		groups[idx].Marks += mark
	}

	for i := range groups {
		if groups[i].Questions > 0 {
			groups[i].Average = Round2(float64(groups[i].Marks) / float64(groups[i].Questions))
		}
	}
	result.Groups = groups

	if result.TotalQuestions > 0 {
		result.RawAverage = float64(result.TotalMarks) / float64(result.TotalQuestions)
		result.Average = Round2(result.RawAverage)
	}

	return result
}

// AnswerMap indexes answers by question for aggregate lookups.
func AnswerMap(answers []models.Answer) map[uint]models.Answer {
	indexed := make(map[uint]models.Answer, len(answers))
	for _, answer := range answers {
		indexed[answer.QuestionID] = answer
	}
	return indexed
}

// ResolveLabel maps a mark back onto the question's option list, where mark 1
// selects the first option. Marks outside the list fall back to
// DefaultAnswerLabel.
func ResolveLabel(question models.Question, mark int) string {
	return question.OptionLabel(mark, DefaultAnswerLabel)
}

// Round2 rounds half away from zero to two decimal places, matching the
// precision the API reports.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
