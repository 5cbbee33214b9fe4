// Package results derives game and poll tallies from raw rows. Nothing here is persisted.
package results

import (
	"github.com/google/uuid"

	"github.com/weddingbets/backend/internal/models"
)

// AnswerResult is an answer with the number of votes it received.
type AnswerResult struct {
	models.Answer
	Votes int `json:"votes"`
}

// QuestionResult is a question with its answers and their vote counts.
type QuestionResult struct {
	models.Question
	Answers []AnswerResult `json:"answers"`
}

// GameResults is the read-time view of a game.
type GameResults struct {
	Game      models.Game      `json:"game"`
	Questions []QuestionResult `json:"questions"`
}

// PollResults maps every declared option to its vote count.
type PollResults struct {
	Poll    models.Poll    `json:"poll"`
	Results map[string]int `json:"results"`
}

// AggregateGameResults groups answers under their questions and counts votes per answer.
// Counts are reported as-is; ties are not broken. Answers for unknown questions and votes for
// unknown answers are dropped.
func AggregateGameResults(game models.Game, questions []models.Question, answers []models.Answer, votes []models.Vote) GameResults {
	counts := make(map[uuid.UUID]int, len(answers))
	for _, a := range answers {
		counts[a.ID] = 0
	}
	for _, v := range votes {
		if _, ok := counts[v.AnswerID]; ok {
			counts[v.AnswerID]++
		}
	}

	byQuestion := make(map[uuid.UUID][]AnswerResult, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], AnswerResult{Answer: a, Votes: counts[a.ID]})
	}

	out := GameResults{Game: game, Questions: make([]QuestionResult, 0, len(questions))}
	if out.Game.ConfirmedWinners == nil {
		out.Game.ConfirmedWinners = []uuid.UUID{}
	}
	for _, q := range questions {
		qa := byQuestion[q.ID]
		if qa == nil {
			qa = []AnswerResult{}
		}
		out.Questions = append(out.Questions, QuestionResult{Question: q, Answers: qa})
	}
	return out
}

// TallyPoll counts votes per option. Every declared option starts at zero so it is present even
// without votes; votes naming an option the poll does not declare are ignored.
func TallyPoll(poll models.Poll, votes []models.PollVote) map[string]int {
	tally := make(map[string]int, len(poll.Options))
	for _, o := range poll.Options {
		tally[o] = 0
	}
	for _, v := range votes {
		if _, ok := tally[v.Option]; ok {
			tally[v.Option]++
		}
	}
	return tally
}

// AggregatePoll wraps TallyPoll with the poll it belongs to.
func AggregatePoll(poll models.Poll, votes []models.PollVote) PollResults {
	return PollResults{Poll: poll, Results: TallyPoll(poll, votes)}
}
