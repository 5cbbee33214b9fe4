package games

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/realtime"
	"github.com/weddingbets/backend/internal/timergate"
)

var t0 = time.Date(2026, 6, 20, 18, 0, 0, 0, time.UTC)

type env struct {
	svc   *Service
	store *memStore
	clock *clockwork.FakeClock
	pub   *recordingPublisher
}

func newEnv() *env {
	e := &env{store: newMemStore(), clock: clockwork.NewFakeClockAt(t0), pub: &recordingPublisher{}}
	e.svc = NewService(e.store, timergate.NewGate(e.clock), e.pub, nil)
	return e
}

func str(s string) *string { return &s }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, code), "want %s, got %v", code, err)
}

func TestCreateGameValidation(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	q := []NewQuestion{{QuestionText: "First dance song?", AnswerType: models.AnswerTypeText}}

	_, err := e.svc.CreateGame(ctx, " ", t0, q)
	requireCode(t, err, apperr.CodeInvalidInput)
	_, err = e.svc.CreateGame(ctx, "Reception", time.Time{}, q)
	requireCode(t, err, apperr.CodeInvalidInput)
	_, err = e.svc.CreateGame(ctx, "Reception", t0, nil)
	requireCode(t, err, apperr.CodeInvalidInput)
	_, err = e.svc.CreateGame(ctx, "Reception", t0, []NewQuestion{{QuestionText: "x", AnswerType: "essay"}})
	requireCode(t, err, apperr.CodeInvalidInput)

	game, err := e.svc.CreateGame(ctx, "Reception", t0.Add(time.Hour), q)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusActive, game.Status)
	require.Len(t, game.Questions, 1)
	assert.Equal(t, game.ID, game.Questions[0].GameID)

	e.store.fail = errors.New("db down")
	_, err = e.svc.CreateGame(ctx, "Reception", t0, q)
	requireCode(t, err, apperr.CodeServerError)
}

func TestGetGame(t *testing.T) {
	e := newEnv()
	g, _ := e.store.addGame(t0.Add(time.Hour), models.AnswerTypeText, models.AnswerTypeMultipleChoice)

	got, err := e.svc.GetGame(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Len(t, got.Questions, 2)
	assert.NotNil(t, got.ConfirmedWinners)

	_, err = e.svc.GetGame(context.Background(), uuid.New())
	requireCode(t, err, apperr.CodeNotFound)
}

func TestSubmitAnswerErrorOrder(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	user := uuid.New()
	_, qs := e.store.addGame(t0.Add(time.Hour), models.AnswerTypeText)

	_, err := e.svc.SubmitAnswer(ctx, uuid.Nil, qs[0].ID, AnswerInput{})
	requireCode(t, err, apperr.CodeInvalidInput)
	_, err = e.svc.SubmitAnswer(ctx, uuid.Nil, qs[0].ID, AnswerInput{AnswerText: str("Perfect")})
	requireCode(t, err, apperr.CodeUnauthorized)
	_, err = e.svc.SubmitAnswer(ctx, user, uuid.New(), AnswerInput{AnswerText: str("Perfect")})
	requireCode(t, err, apperr.CodeNotFound)
}

func TestSubmitAnswerStoresOnlyMatchingField(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	user := uuid.New()
	_, qs := e.store.addGame(t0.Add(time.Hour), models.AnswerTypeMultipleChoice, models.AnswerTypeText)

	a, err := e.svc.SubmitAnswer(ctx, user, qs[0].ID, AnswerInput{AnswerText: str("ignored"), Choice: str("B")})
	require.NoError(t, err)
	assert.Nil(t, a.AnswerText)
	require.NotNil(t, a.Choice)
	assert.Equal(t, "B", *a.Choice)

	a, err = e.svc.SubmitAnswer(ctx, user, qs[1].ID, AnswerInput{AnswerText: str(" Perfect "), Choice: str("C")})
	require.NoError(t, err)
	assert.Nil(t, a.Choice)
	assert.Equal(t, "Perfect", *a.AnswerText)

	_, err = e.svc.SubmitAnswer(ctx, user, qs[0].ID, AnswerInput{AnswerText: str("no choice")})
	requireCode(t, err, apperr.CodeInvalidInput)
}

func TestSubmitAnswerUpserts(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	user := uuid.New()
	_, qs := e.store.addGame(t0.Add(time.Hour), models.AnswerTypeText)

	first, err := e.svc.SubmitAnswer(ctx, user, qs[0].ID, AnswerInput{AnswerText: str("A")})
	require.NoError(t, err)
	second, err := e.svc.SubmitAnswer(ctx, user, qs[0].ID, AnswerInput{AnswerText: str("B")})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, e.store.answers, 1)
	assert.Equal(t, "B", *e.store.answers[0].AnswerText)
}

func TestSubmitAnswerRejectedAtAndAfterExpiry(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	_, qs := e.store.addGame(t0.Add(time.Minute), models.AnswerTypeText)

	e.clock.Advance(time.Minute)
	_, err := e.svc.SubmitAnswer(ctx, uuid.New(), qs[0].ID, AnswerInput{AnswerText: str("late")})
	requireCode(t, err, apperr.CodeTimerExpired)
	assert.Empty(t, e.store.answers)
}

func TestSubmitAnswerReadsFreshTimer(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	g, qs := e.store.addGame(t0.Add(time.Hour), models.AnswerTypeText)

	e.store.games[g.ID].TimerEnd = t0.Add(-time.Second)
	_, err := e.svc.SubmitAnswer(ctx, uuid.New(), qs[0].ID, AnswerInput{AnswerText: str("x")})
	requireCode(t, err, apperr.CodeTimerExpired)
}

func answered(t *testing.T, e *env, timerEnd time.Time) (game *models.Game, answerID uuid.UUID) {
	t.Helper()
	g, qs := e.store.addGame(timerEnd, models.AnswerTypeText)
	a := models.Answer{ID: uuid.New(), QuestionID: qs[0].ID, UserID: uuid.New(), AnswerText: str("Perfect")}
	e.store.answers = append(e.store.answers, a)
	return g, a.ID
}

func TestSubmitVoteBeforeExpiry(t *testing.T) {
	e := newEnv()
	_, answerID := answered(t, e, t0.Add(time.Second))

	_, err := e.svc.SubmitVote(context.Background(), uuid.New(), answerID)
	requireCode(t, err, apperr.CodeTimerNotExpired)
}

func TestSubmitVoteErrorOrder(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.svc.SubmitVote(ctx, uuid.New(), uuid.Nil)
	requireCode(t, err, apperr.CodeInvalidInput)
	_, err = e.svc.SubmitVote(ctx, uuid.Nil, uuid.New())
	requireCode(t, err, apperr.CodeUnauthorized)
	_, err = e.svc.SubmitVote(ctx, uuid.New(), uuid.New())
	requireCode(t, err, apperr.CodeNotFound)
}

func TestSubmitVoteOncePerAnswer(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	voter := uuid.New()
	_, answerID := answered(t, e, t0)

	vote, err := e.svc.SubmitVote(ctx, voter, answerID)
	require.NoError(t, err)
	assert.Equal(t, answerID, vote.AnswerID)

	_, err = e.svc.SubmitVote(ctx, voter, answerID)
	requireCode(t, err, apperr.CodeVoteExists)
	assert.Len(t, e.store.votes, 1)
}

func TestSubmitVoteConstraintIsAuthoritative(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	voter := uuid.New()
	_, answerID := answered(t, e, t0)
	_, err := e.svc.SubmitVote(ctx, voter, answerID)
	require.NoError(t, err)

	e.store.racePrecheck = true
	_, err = e.svc.SubmitVote(ctx, voter, answerID)
	requireCode(t, err, apperr.CodeVoteExists)
	assert.Len(t, e.store.votes, 1)
}

func TestRemoveVoteOnlyOwn(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	voter := uuid.New()
	_, answerID := answered(t, e, t0)
	vote, err := e.svc.SubmitVote(ctx, voter, answerID)
	require.NoError(t, err)

	err = e.svc.RemoveVote(ctx, uuid.New(), vote.ID)
	requireCode(t, err, apperr.CodeNotFound)
	assert.Len(t, e.store.votes, 1)

	require.NoError(t, e.svc.RemoveVote(ctx, voter, vote.ID))
	assert.Empty(t, e.store.votes)

	_, err = e.svc.SubmitVote(ctx, voter, answerID)
	assert.NoError(t, err, "vote again after removal")
}

func TestGameResultsCountsVotes(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	g, answerID := answered(t, e, t0)
	for i := 0; i < 3; i++ {
		_, err := e.svc.SubmitVote(ctx, uuid.New(), answerID)
		require.NoError(t, err)
	}

	res, err := e.svc.GameResults(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	require.Len(t, res.Questions[0].Answers, 1)
	assert.Equal(t, 3, res.Questions[0].Answers[0].Votes)

	_, err = e.svc.GameResults(ctx, uuid.New())
	requireCode(t, err, apperr.CodeNotFound)
}

func TestConfirmWinnersOnce(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	g, _ := e.store.addGame(t0, models.AnswerTypeText)
	winner := uuid.New()

	_, err := e.svc.ConfirmWinners(ctx, g.ID, nil)
	requireCode(t, err, apperr.CodeInvalidInput)

	ended, err := e.svc.ConfirmWinners(ctx, g.ID, []uuid.UUID{winner, winner})
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusEnded, ended.Status)
	assert.Equal(t, []uuid.UUID{winner}, ended.ConfirmedWinners)

	require.Len(t, e.pub.events, 1)
	assert.Equal(t, realtime.GameTopic(g.ID), e.pub.events[0].Topic)
	assert.Equal(t, realtime.EventWinnersConfirmed, e.pub.events[0].Event)

	_, err = e.svc.ConfirmWinners(ctx, g.ID, []uuid.UUID{uuid.New()})
	requireCode(t, err, apperr.CodeGameEnded)
	assert.Len(t, e.pub.events, 1)

	_, err = e.svc.ConfirmWinners(ctx, uuid.New(), []uuid.UUID{winner})
	requireCode(t, err, apperr.CodeNotFound)
}
