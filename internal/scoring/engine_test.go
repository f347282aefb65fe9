package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/secura-go-api/internal/models"
)

func question(id uint, group string) models.Question {
	return models.Question{ID: id, Framework: models.FrameworkNist, GroupKey: group, Text: "q"}
}

func answer(questionID uint, mark int) models.Answer {
	return models.Answer{EvaluationID: 1, QuestionID: questionID, Mark: mark}
}

func TestComputeAggregateEmptyCatalog(t *testing.T) {
	result := ComputeAggregate(nil, AnswerMap([]models.Answer{answer(1, 5)}), 1)

	require.Equal(t, 0, result.TotalQuestions)
	require.Equal(t, 0, result.TotalMarks)
	require.Equal(t, 0.0, result.Average)
	require.Empty(t, result.Groups)
}

func TestComputeAggregateUnansweredDefaultToBaseline(t *testing.T) {
	questions := []models.Question{
		question(1, "Identify"), question(2, "Identify"), question(3, "Protect"),
		question(4, "Protect"), question(5, "Detect"),
	}
	answers := AnswerMap([]models.Answer{answer(1, 3), answer(2, 5)})

	result := ComputeAggregate(questions, answers, 1)

	require.Equal(t, 5, result.TotalQuestions)
	require.Equal(t, 2, result.Answered)
	require.Equal(t, 11, result.TotalMarks)
	require.Equal(t, 2.20, result.Average)
}

func TestComputeAggregateGrouping(t *testing.T) {
	questions := []models.Question{
		question(1, "groupA"), question(2, "groupA"), question(3, "groupB"),
	}
	answers := AnswerMap([]models.Answer{answer(1, 4), answer(2, 2)})

	result := ComputeAggregate(questions, answers, 1)

	require.Len(t, result.Groups, 2)
	require.Equal(t, "groupA", result.Groups[0].Key)
	require.Equal(t, 3.00, result.Groups[0].Average)
	require.Equal(t, "groupB", result.Groups[1].Key)
	require.Equal(t, 1.00, result.Groups[1].Average)
}

func TestComputeAggregateGroupOrderFollowsCatalog(t *testing.T) {
	questions := []models.Question{
		question(10, "Recover"), question(11, "Identify"),
		question(12, "Recover"), question(13, "Detect"),
	}

	result := ComputeAggregate(questions, AnswerMap(nil), 1)

	keys := make([]string, 0, len(result.Groups))
	for _, group := range result.Groups {
		keys = append(keys, group.Key)
	}
	require.Equal(t, []string{"Recover", "Identify", "Detect"}, keys)
}

func TestComputeAggregateZeroBaseline(t *testing.T) {
	questions := []models.Question{question(1, "a"), question(2, "a"), question(3, "a")}
	answers := AnswerMap([]models.Answer{answer(1, 3)})

	result := ComputeAggregate(questions, answers, 0)

	require.Equal(t, 3, result.TotalMarks)
	require.Equal(t, 1.00, result.Average)
}

func TestComputeAggregateEndToEndScenario(t *testing.T) {
	questions := []models.Question{
		question(1, "A"), question(2, "A"), question(3, "B"),
	}

	draft := ComputeAggregate(questions, AnswerMap([]models.Answer{answer(1, 5)}), 1)
	require.Equal(t, 2.33, draft.Average)

	final := ComputeAggregate(questions, AnswerMap([]models.Answer{
		answer(1, 5), answer(2, 3), answer(3, 5),
	}), 1)
	require.Equal(t, 4.33, final.Average)
}

func TestComputeAggregateDeterministic(t *testing.T) {
	questions := []models.Question{question(1, "A"), question(2, "B")}
	answers := AnswerMap([]models.Answer{answer(2, 4)})

	first := ComputeAggregate(questions, answers, 1)
	second := ComputeAggregate(questions, answers, 1)

	require.Equal(t, first, second)
}

func TestResolveLabel(t *testing.T) {
	q := models.Question{
		ID:      1,
		Options: datatypes.NewJSONSlice([]string{"Never", "Rarely", "Sometimes", "Often", "Always"}),
	}

	require.Equal(t, "Never", ResolveLabel(q, 1))
	require.Equal(t, "Always", ResolveLabel(q, 5))
	require.Equal(t, DefaultAnswerLabel, ResolveLabel(q, 0))
	require.Equal(t, DefaultAnswerLabel, ResolveLabel(q, 6))
	require.Equal(t, DefaultAnswerLabel, ResolveLabel(models.Question{ID: 2}, 1))
}

func TestRound2(t *testing.T) {
	require.Equal(t, 2.33, Round2(7.0/3.0))
	require.Equal(t, 0.0, Round2(0))
	require.Equal(t, 2.5, Round2(2.499999999999999))
}
