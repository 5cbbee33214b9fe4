package games

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/pkg/database"
)

// memStore mirrors the table constraints the repository relies on.
type memStore struct {
	mu        sync.Mutex
	games     map[uuid.UUID]*models.Game
	questions []models.Question
	answers   []models.Answer
	votes     []models.Vote

	// racePrecheck makes HasVote miss existing rows, as a concurrent insert would.
	racePrecheck bool
	fail         error
}

func newMemStore() *memStore {
	return &memStore{games: map[uuid.UUID]*models.Game{}}
}

func (m *memStore) addGame(timerEnd time.Time, types ...models.AnswerType) (*models.Game, []models.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &models.Game{ID: uuid.New(), Name: "Reception", TimerEnd: timerEnd, Status: models.GameStatusActive, CreatedAt: time.Now()}
	m.games[g.ID] = g
	var qs []models.Question
	for i, t := range types {
		q := models.Question{ID: uuid.New(), GameID: g.ID, QuestionText: "Q" + string(rune('1'+i)), AnswerType: t}
		m.questions = append(m.questions, q)
		qs = append(qs, q)
	}
	return g, qs
}

func (m *memStore) CreateGame(_ context.Context, name string, timerEnd time.Time, questions []NewQuestion) (*models.GameWithQuestions, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g := models.Game{ID: uuid.New(), Name: name, TimerEnd: timerEnd, Status: models.GameStatusActive}
	m.games[g.ID] = &g
	out := &models.GameWithQuestions{Game: g}
	for _, nq := range questions {
		q := models.Question{ID: uuid.New(), GameID: g.ID, QuestionText: nq.QuestionText, AnswerType: nq.AnswerType}
		m.questions = append(m.questions, q)
		out.Questions = append(out.Questions, q)
	}
	return out, nil
}

func (m *memStore) ActiveGames(context.Context) ([]models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Game
	for _, g := range m.games {
		if g.Status == models.GameStatusActive {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memStore) GetGame(_ context.Context, id uuid.UUID) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memStore) Questions(_ context.Context, gameID uuid.UUID) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Question{}
	for _, q := range m.questions {
		if q.GameID == gameID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memStore) QuestionTarget(_ context.Context, questionID uuid.UUID) (*models.QuestionTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions {
		if q.ID == questionID {
			return &models.QuestionTarget{Question: q, TimerEnd: m.games[q.GameID].TimerEnd}, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) UpsertAnswer(_ context.Context, questionID, userID uuid.UUID, text, choice *string) (*models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.answers {
		if m.answers[i].QuestionID == questionID && m.answers[i].UserID == userID {
			m.answers[i].AnswerText, m.answers[i].Choice = text, choice
			m.answers[i].UpdatedAt = time.Now()
			cp := m.answers[i]
			return &cp, nil
		}
	}
	a := models.Answer{ID: uuid.New(), QuestionID: questionID, UserID: userID, AnswerText: text, Choice: choice}
	m.answers = append(m.answers, a)
	return &a, nil
}

func (m *memStore) AnswerTarget(_ context.Context, answerID uuid.UUID) (*models.AnswerTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.answers {
		if a.ID != answerID {
			continue
		}
		for _, q := range m.questions {
			if q.ID == a.QuestionID {
				g := m.games[q.GameID]
				return &models.AnswerTarget{Answer: a, GameID: g.ID, TimerEnd: g.TimerEnd}, nil
			}
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) HasVote(_ context.Context, answerID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.racePrecheck {
		return false, nil
	}
	for _, v := range m.votes {
		if v.AnswerID == answerID && v.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertVote(_ context.Context, answerID, userID uuid.UUID) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.votes {
		if v.AnswerID == answerID && v.UserID == userID {
			return nil, database.ErrDuplicate
		}
	}
	v := models.Vote{ID: uuid.New(), AnswerID: answerID, UserID: userID, CreatedAt: time.Now()}
	m.votes = append(m.votes, v)
	return &v, nil
}

func (m *memStore) DeleteVote(_ context.Context, voteID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.votes {
		if v.ID == voteID && v.UserID == userID {
			m.votes = append(m.votes[:i], m.votes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) AnswersForGame(_ context.Context, gameID uuid.UUID) ([]models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qs := map[uuid.UUID]bool{}
	for _, q := range m.questions {
		if q.GameID == gameID {
			qs[q.ID] = true
		}
	}
	out := []models.Answer{}
	for _, a := range m.answers {
		if qs[a.QuestionID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) VotesForGame(ctx context.Context, gameID uuid.UUID) ([]models.Vote, error) {
	answers, _ := m.AnswersForGame(ctx, gameID)
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[uuid.UUID]bool{}
	for _, a := range answers {
		ids[a.ID] = true
	}
	out := []models.Vote{}
	for _, v := range m.votes {
		if ids[v.AnswerID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) EndGame(_ context.Context, gameID uuid.UUID, winners []uuid.UUID) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok || g.Status != models.GameStatusActive {
		return nil, database.ErrNotFound
	}
	g.Status = models.GameStatusEnded
	g.ConfirmedWinners = winners
	cp := *g
	return &cp, nil
}

type published struct {
	Topic, Event string
	Payload      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic, event, payload})
}
