package results

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingbets/backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestTallyPoll(t *testing.T) {
	poll := models.Poll{ID: uuid.New(), Options: []string{"A", "B"}}
	votes := []models.PollVote{{Option: "A"}, {Option: "A"}, {Option: "B"}}

	assert.Equal(t, map[string]int{"A": 2, "B": 1}, TallyPoll(poll, votes))
}

func TestTallyPollKeepsZeroOptionsAndIgnoresUnknown(t *testing.T) {
	poll := models.Poll{ID: uuid.New(), Options: []string{"Beach", "Barn", "Ballroom"}}
	votes := []models.PollVote{{Option: "Barn"}, {Option: "Castle"}}

	got := TallyPoll(poll, votes)
	assert.Equal(t, map[string]int{"Beach": 0, "Barn": 1, "Ballroom": 0}, got)
	assert.NotContains(t, got, "Castle")
}

func TestAggregatePollDoesNotMutateInput(t *testing.T) {
	poll := models.Poll{ID: uuid.New(), Options: []string{"A", "B"}}
	votes := []models.PollVote{{Option: "B"}}
	first := AggregatePoll(poll, votes)
	second := AggregatePoll(poll, votes)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, []string{"A", "B"}, poll.Options)
	assert.Len(t, votes, 1)
}

func TestAggregateGameResults(t *testing.T) {
	game := models.Game{ID: uuid.New(), Name: "Reception bets", Status: models.GameStatusActive}
	q1 := models.Question{ID: uuid.New(), GameID: game.ID, QuestionText: "Who cries first?", AnswerType: models.AnswerTypeText}
	q2 := models.Question{ID: uuid.New(), GameID: game.ID, QuestionText: "First dance song?", AnswerType: models.AnswerTypeMultipleChoice}

	a1 := models.Answer{ID: uuid.New(), QuestionID: q1.ID, UserID: uuid.New(), AnswerText: strPtr("the groom")}
	a2 := models.Answer{ID: uuid.New(), QuestionID: q1.ID, UserID: uuid.New(), AnswerText: strPtr("the bride")}
	a3 := models.Answer{ID: uuid.New(), QuestionID: uuid.New(), UserID: uuid.New(), AnswerText: strPtr("orphan")}

	votes := []models.Vote{
		{ID: uuid.New(), AnswerID: a1.ID, UserID: uuid.New()},
		{ID: uuid.New(), AnswerID: a2.ID, UserID: uuid.New()},
		{ID: uuid.New(), AnswerID: a1.ID, UserID: uuid.New()},
		{ID: uuid.New(), AnswerID: a2.ID, UserID: uuid.New()},
		{ID: uuid.New(), AnswerID: uuid.New(), UserID: uuid.New()},
	}

	got := AggregateGameResults(game, []models.Question{q1, q2}, []models.Answer{a1, a2, a3}, votes)

	require.Len(t, got.Questions, 2)
	assert.Equal(t, q1.ID, got.Questions[0].ID)
	require.Len(t, got.Questions[0].Answers, 2)
	assert.Equal(t, a1.ID, got.Questions[0].Answers[0].ID)
	assert.Equal(t, 2, got.Questions[0].Answers[0].Votes)
	assert.Equal(t, a2.ID, got.Questions[0].Answers[1].ID)
	assert.Equal(t, 2, got.Questions[0].Answers[1].Votes, "ties are reported verbatim")

	assert.Equal(t, q2.ID, got.Questions[1].ID)
	assert.NotNil(t, got.Questions[1].Answers)
	assert.Empty(t, got.Questions[1].Answers)

	assert.NotNil(t, got.Game.ConfirmedWinners)
	assert.Empty(t, got.Game.ConfirmedWinners)
}

func TestAggregateGameResultsAnswerWithoutVotes(t *testing.T) {
	q := models.Question{ID: uuid.New(), AnswerType: models.AnswerTypeMultipleChoice}
	a := models.Answer{ID: uuid.New(), QuestionID: q.ID, Choice: strPtr("Perfect")}

	got := AggregateGameResults(models.Game{}, []models.Question{q}, []models.Answer{a}, nil)
	require.Len(t, got.Questions[0].Answers, 1)
	assert.Equal(t, 0, got.Questions[0].Answers[0].Votes)
}
