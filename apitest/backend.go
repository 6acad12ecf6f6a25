// Package apitest runs an in-memory stand-in for the CityConnect backend so
// client packages can be tested end to end over real HTTP.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"cityconnect/types"
)

const signingSecret = "apitest-secret"

type failure struct {
	status  int
	message string
}

type Backend struct {
	URL    string
	server *httptest.Server

	mu            sync.Mutex
	seq           int
	users         map[string]*types.User
	passwords     map[string]string // email -> password
	tokens        map[string]string // token -> user id
	ratings       map[string][]int
	events        []*types.Activity
	conversations []*storedConversation
	requests      []string
	failures      map[string]failure
	hooks         map[string]func()
	rawEvents     []json.RawMessage

	joinReturnsConversation bool
}

type storedConversation struct {
	id       string
	eventID  string
	messages []types.Message
}

func NewBackend(t *testing.T) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		users:                   make(map[string]*types.User),
		passwords:               make(map[string]string),
		tokens:                  make(map[string]string),
		ratings:                 make(map[string][]int),
		failures:                make(map[string]failure),
		hooks:                   make(map[string]func()),
		joinReturnsConversation: true,
	}

	r := gin.New()
	r.Use(b.record)
	b.routes(r)

	b.server = httptest.NewServer(r)
	b.URL = b.server.URL
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s%d", prefix, b.seq)
}

func (b *Backend) record(c *gin.Context) {
	b.mu.Lock()
	line := c.Request.Method + " " + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		line += "?" + c.Request.URL.RawQuery
	}
	b.requests = append(b.requests, line)
	b.mu.Unlock()
	c.Next()
}

// Requests lists every request seen, as "METHOD /path?query".
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *Backend) RequestCount(prefix string) int {
	n := 0
	for _, r := range b.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// Fail makes the route ("POST /events/:id/join") answer status with message
// until Clear is called.
func (b *Backend) Fail(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, message: message}
}

func (b *Backend) Clear(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
}

// OnRequest runs fn when route is hit, before the handler answers.
func (b *Backend) OnRequest(route string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[route] = fn
}

// JoinReturnsConversation controls whether a join answers with the
// activity's conversation or a bare confirmation.
func (b *Backend) JoinReturnsConversation(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.joinReturnsConversation = v
}

func (b *Backend) AddUser(username, email, password string) *types.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, email, password)
}

func (b *Backend) addUserLocked(username, email, password string) *types.User {
	u := &types.User{ID: b.nextID("u"), Username: username, Email: email}
	b.users[u.ID] = u
	b.passwords[email] = password
	return u
}

// IssueToken mints a signed token carrying the userId claim and accepts it.
func (b *Backend) IssueToken(userID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueTokenLocked(userID)
}

func (b *Backend) issueTokenLocked(userID string) string {
	b.seq++
	claims := jwt.MapClaims{
		"userId": userID,
		"nonce":  b.seq,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		panic(err)
	}
	b.tokens[token] = userID
	return token
}

func (b *Backend) RevokeTokens(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for token, id := range b.tokens {
		if id == userID {
			delete(b.tokens, token)
		}
	}
}

func (b *Backend) AddEvent(a types.Activity) *types.Activity {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == "" {
		a.ID = b.nextID("e")
	}
	if a.Participants == nil {
		a.Participants = []string{}
	}
	stored := a
	b.events = append(b.events, &stored)
	return &stored
}

// AddRawEvent appends raw to every GET /events answer, unfiltered and as
// is, for payloads the typed model would never produce.
func (b *Backend) AddRawEvent(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawEvents = append(b.rawEvents, json.RawMessage(raw))
}

func (b *Backend) Event(id string) (types.Activity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e := b.findEventLocked(id); e != nil {
		return *e, true
	}
	return types.Activity{}, false
}

func (b *Backend) Events() []types.Activity {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Activity, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, *e)
	}
	return out
}

// AddConversation attaches a conversation to eventID. The event does not
// need to exist, which models a conversation whose activity was deleted.
func (b *Backend) AddConversation(eventID string, messages ...types.Message) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	conv := &storedConversation{id: b.nextID("c"), eventID: eventID, messages: messages}
	b.conversations = append(b.conversations, conv)
	return conv.id
}

func (b *Backend) MessageCount(conversationID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if conv := b.findConversationLocked(conversationID); conv != nil {
		return len(conv.messages)
	}
	return 0
}

func (b *Backend) findEventLocked(id string) *types.Activity {
	for _, e := range b.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (b *Backend) findConversationLocked(id string) *storedConversation {
	for _, c := range b.conversations {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (b *Backend) conversationForEventLocked(eventID string) *storedConversation {
	for _, c := range b.conversations {
		if c.eventID == eventID {
			return c
		}
	}
	return nil
}

func (b *Backend) renderConversationLocked(conv *storedConversation) types.Conversation {
	out := types.Conversation{
		ID:       conv.id,
		Event:    types.ActivityRef{ID: conv.eventID},
		Messages: make([]types.Message, 0, len(conv.messages)),
	}
	if e := b.findEventLocked(conv.eventID); e != nil {
		populated := *e
		out.Event.Activity = &populated
	}
	for _, m := range conv.messages {
		if u, ok := b.users[m.Sender.ID]; ok {
			sender := *u
			m.Sender.User = &sender
		}
		out.Messages = append(out.Messages, m)
	}
	return out
}
