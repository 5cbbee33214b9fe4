// Package client is a Go SDK for the wedding bets HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/results"
)

// Session is a signed-in user with its bearer token.
type Session struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      models.UserPublic `json:"user"`
}

// Answer is the body of SubmitAnswer. Set the field matching the question's answer type.
type Answer struct {
	AnswerText *string `json:"answer_text,omitempty"`
	Choice     *string `json:"choice,omitempty"`
}

// Client talks to one API base URL. It keeps the token of the last Login or SignUp.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apperr.Error   `json:"error"`
}

// do sends the request and decodes the data field into out. Non-2xx replies become the
// server's *apperr.Error; anything that prevents reading a reply becomes 500-SERVER-ERROR.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Server("build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Server("request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Server("read response", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 300 {
				return apperr.Server(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
			}
			return apperr.Server("decode response", err)
		}
	}
	if resp.StatusCode >= 300 {
		if env.Error != nil {
			return env.Error
		}
		return apperr.Server(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Server("decode response", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	if in == nil {
		return c.do(ctx, method, path, "", nil, out)
	}
	body, err := json.Marshal(in)
	if err != nil {
		return apperr.Server("encode request", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(body), out)
}

func multipartBody(fields map[string]string, fileField, fileName string, file []byte) (string, *bytes.Buffer, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", nil, err
		}
	}
	if len(file) > 0 {
		part, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			return "", nil, err
		}
		if _, err := part.Write(file); err != nil {
			return "", nil, err
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), &buf, nil
}

// SignUp creates an account and keeps the returned session. selfie may be nil.
func (c *Client) SignUp(ctx context.Context, email, password, name string, selfie []byte) (*Session, error) {
	var s Session
	var err error
	if len(selfie) == 0 {
		err = c.doJSON(ctx, http.MethodPost, "/auth/signup", map[string]string{
			"email": email, "password": password, "name": name,
		}, &s)
	} else {
		ct, body, mpErr := multipartBody(map[string]string{
			"email": email, "password": password, "name": name,
		}, "selfie", "selfie.jpg", selfie)
		if mpErr != nil {
			return nil, apperr.Server("encode request", mpErr)
		}
		err = c.do(ctx, http.MethodPost, "/auth/signup", ct, body, &s)
	}
	if err != nil {
		return nil, err
	}
	c.setToken(s.Token)
	return &s, nil
}

// Login signs in and keeps the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &s); err != nil {
		return nil, err
	}
	c.setToken(s.Token)
	return &s, nil
}

// Profile returns the signed-in user.
func (c *Client) Profile(ctx context.Context) (*models.UserPublic, error) {
	var u models.UserPublic
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes the session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

// ActiveGames lists games still open, soonest timer first.
func (c *Client) ActiveGames(ctx context.Context) ([]models.Game, error) {
	var list []models.Game
	if err := c.doJSON(ctx, http.MethodGet, "/games", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Game returns a game with its questions.
func (c *Client) Game(ctx context.Context, gameID uuid.UUID) (*models.GameWithQuestions, error) {
	var g models.GameWithQuestions
	if err := c.doJSON(ctx, http.MethodGet, "/games/"+gameID.String(), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GameResults returns answers and vote counts per question.
func (c *Client) GameResults(ctx context.Context, gameID uuid.UUID) (*results.GameResults, error) {
	var r results.GameResults
	if err := c.doJSON(ctx, http.MethodGet, "/games/"+gameID.String()+"/results", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SubmitAnswer creates or replaces the caller's answer to a question.
func (c *Client) SubmitAnswer(ctx context.Context, questionID uuid.UUID, answer Answer) (*models.Answer, error) {
	var a models.Answer
	if err := c.doJSON(ctx, http.MethodPost, "/questions/"+questionID.String()+"/answers", answer, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SubmitVote votes for an answer.
func (c *Client) SubmitVote(ctx context.Context, answerID uuid.UUID) (*models.Vote, error) {
	var v models.Vote
	if err := c.doJSON(ctx, http.MethodPost, "/answers/"+answerID.String()+"/votes", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// RemoveVote withdraws one of the caller's votes.
func (c *Client) RemoveVote(ctx context.Context, voteID uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/votes/"+voteID.String(), nil, nil)
}

// ActivePolls lists a game's open polls, newest first.
func (c *Client) ActivePolls(ctx context.Context, gameID uuid.UUID) ([]models.Poll, error) {
	var list []models.Poll
	if err := c.doJSON(ctx, http.MethodGet, "/games/"+gameID.String()+"/polls", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PollResults returns the tally of every declared option.
func (c *Client) PollResults(ctx context.Context, pollID uuid.UUID) (*results.PollResults, error) {
	var r results.PollResults
	if err := c.doJSON(ctx, http.MethodGet, "/polls/"+pollID.String()+"/results", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SubmitPollVote records or replaces the caller's poll choice.
func (c *Client) SubmitPollVote(ctx context.Context, pollID uuid.UUID, option string) (*models.PollVote, error) {
	var v models.PollVote
	if err := c.doJSON(ctx, http.MethodPost, "/polls/"+pollID.String()+"/votes", map[string]string{"option": option}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ChatRooms lists public rooms and the private rooms the caller belongs to.
func (c *Client) ChatRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var list []models.ChatRoom
	if err := c.doJSON(ctx, http.MethodGet, "/rooms", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Messages returns a room's history, oldest first.
func (c *Client) Messages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	var list []models.Message
	if err := c.doJSON(ctx, http.MethodGet, "/rooms/"+roomID.String()+"/messages", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SendMessage posts to a room. photo may be nil.
func (c *Client) SendMessage(ctx context.Context, roomID uuid.UUID, content string, photo []byte) (*models.Message, error) {
	path := "/rooms/" + roomID.String() + "/messages"
	var m models.Message
	if len(photo) == 0 {
		if err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"content": content}, &m); err != nil {
			return nil, err
		}
		return &m, nil
	}
	ct, body, err := multipartBody(map[string]string{"content": content}, "photo", "photo.jpg", photo)
	if err != nil {
		return nil, apperr.Server("encode request", err)
	}
	if err := c.do(ctx, http.MethodPost, path, ct, body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
