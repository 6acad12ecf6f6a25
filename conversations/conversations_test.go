package conversations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cityconnect/alerts"
	"cityconnect/apitest"
	"cityconnect/conversations"
	"cityconnect/screen"
	"cityconnect/types"
)

func TestInboxKeepsResolvedInOrder(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	me := stack.SignIn(t, backend, "paul")

	first := backend.AddEvent(types.Activity{Title: "Yoga", Location: "48.85,2.35", MaxParticipants: 5, CreatedBy: me})
	second := backend.AddEvent(types.Activity{Title: "Cuisine", Location: "48.86,2.36", MaxParticipants: 5, Participants: []string{me}})
	backend.AddEvent(types.Activity{Title: "Pas moi", Location: "1,1", MaxParticipants: 5})
	backend.AddConversation(first.ID)
	backend.AddConversation("deleted-activity")
	backend.AddConversation(second.ID)

	rec := &alerts.Recorder{}
	inbox := conversations.NewInbox(conversations.NewService(stack.Client), rec, nil)
	scope := screen.NewScope(context.Background())
	defer scope.Close()

	if err := inbox.Refresh(scope); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got := inbox.Conversations()
	if len(got) != 2 {
		t.Fatalf("expected two resolved conversations, got %d", len(got))
	}
	if got[0].Event.Activity.Title != "Yoga" || got[1].Event.Activity.Title != "Cuisine" {
		t.Fatalf("expected backend order, got %s, %s", got[0].Event.Activity.Title, got[1].Event.Activity.Title)
	}
	if len(rec.Alerts()) != 0 {
		t.Fatalf("unexpected alerts %v", rec.Alerts())
	}
}

func TestInboxReadFailure(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	stack.SignIn(t, backend, "quinn")
	backend.Fail("GET /conversations/my-conversations", 500, "boom")

	rec := &alerts.Recorder{}
	inbox := conversations.NewInbox(conversations.NewService(stack.Client), rec, nil)
	scope := screen.NewScope(context.Background())
	defer scope.Close()

	if err := inbox.Refresh(scope); err == nil {
		t.Fatalf("expected error")
	}
	if inbox.Loaded() || len(inbox.Conversations()) != 0 {
		t.Fatalf("expected empty state after read failure")
	}
	if rec.Last() != (alerts.Alert{Kind: alerts.KindRead, Message: "boom"}) {
		t.Fatalf("unexpected alert %+v", rec.Last())
	}
}

func TestInboxUnauthorizedIsReportedNotSignedOut(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	id := stack.SignIn(t, backend, "rita")
	backend.RevokeTokens(id)

	rec := &alerts.Recorder{}
	inbox := conversations.NewInbox(conversations.NewService(stack.Client), rec, nil)
	scope := screen.NewScope(context.Background())
	defer scope.Close()

	_ = inbox.Refresh(scope)
	if rec.Last().Kind != alerts.KindUnauthorized {
		t.Fatalf("expected unauthorized alert, got %+v", rec.Last())
	}
	if !stack.Session.Active(context.Background()) {
		t.Fatalf("token must survive a 401 outside verification")
	}
}

func TestThreadSend(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	me := stack.SignIn(t, backend, "sam")
	a := backend.AddEvent(types.Activity{Title: "Rando", Location: "45.9,6.1", MaxParticipants: 5})
	convID := backend.AddConversation(a.ID, types.Message{ID: "m0", Content: "Salut", Sender: types.UserRef{ID: me}})

	rec := &alerts.Recorder{}
	thread := conversations.NewThread(convID, conversations.NewService(stack.Client), rec, nil)
	scope := screen.NewScope(context.Background())
	defer scope.Close()

	if err := thread.Open(scope); err != nil {
		t.Fatalf("open: %v", err)
	}
	msgs := thread.Messages()
	if len(msgs) != 1 || msgs[0].Sender.Name() != "sam" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if thread.Activity() == nil || thread.Activity().Title != "Rando" {
		t.Fatalf("expected populated activity")
	}

	thread.SetInput("On part à 8h")
	if err := thread.Send(scope); err != nil {
		t.Fatalf("send: %v", err)
	}
	if thread.Input() != "" {
		t.Fatalf("expected input cleared, got %q", thread.Input())
	}
	msgs = thread.Messages()
	if len(msgs) != 2 || msgs[1].Content != "On part à 8h" {
		t.Fatalf("expected appended message, got %+v", msgs)
	}

	backend.Fail("POST /conversations/:id/message", 500, "Erreur serveur")
	thread.SetInput("Et le pique-nique ?")
	if err := thread.Send(scope); err == nil {
		t.Fatalf("expected send failure")
	}
	if thread.Input() != "Et le pique-nique ?" || len(thread.Messages()) != 2 {
		t.Fatalf("failed send must keep input and not append")
	}
	if rec.Last() != (alerts.Alert{Kind: alerts.KindWrite, Message: "Erreur serveur"}) {
		t.Fatalf("unexpected alert %+v", rec.Last())
	}

	thread.SetInput("   ")
	if err := thread.Send(scope); !errors.Is(err, conversations.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestThreadDropsResponseAfterClose(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	stack.SignIn(t, backend, "tom")
	a := backend.AddEvent(types.Activity{Title: "Jeux", Location: "1,1", MaxParticipants: 5})
	convID := backend.AddConversation(a.ID, types.Message{ID: "m0", Content: "hey"})

	thread := conversations.NewThread(convID, conversations.NewService(stack.Client), nil, nil)
	scope := screen.NewScope(context.Background())
	scope.Close()

	if err := thread.Open(scope); err != nil {
		t.Fatalf("closed scope should not surface errors, got %v", err)
	}
	if len(thread.Messages()) != 0 {
		t.Fatalf("closed scope must not mutate state")
	}
}

func TestThreadPoll(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	stack.SignIn(t, backend, "uma")
	a := backend.AddEvent(types.Activity{Title: "Vélo", Location: "1,1", MaxParticipants: 5})
	convID := backend.AddConversation(a.ID, types.Message{ID: "m0", Content: "hello"})

	svc := conversations.NewService(stack.Client)
	thread := conversations.NewThread(convID, svc, nil, nil)
	scope := screen.NewScope(context.Background())
	if err := thread.Open(scope); err != nil {
		t.Fatalf("open: %v", err)
	}

	got := make(chan []types.Message, 4)
	done := make(chan struct{})
	go func() {
		thread.Poll(scope, 10*time.Millisecond, func(m []types.Message) { got <- m })
		close(done)
	}()

	if _, err := svc.Send(context.Background(), convID, "from elsewhere"); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case fresh := <-got:
		if len(fresh) != 1 || fresh[0].Content != "from elsewhere" {
			t.Fatalf("unexpected new messages %+v", fresh)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("poll never reported the new message")
	}

	scope.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poll did not stop after close")
	}
	if len(thread.Messages()) != 2 {
		t.Fatalf("expected thread updated by poll, got %d", len(thread.Messages()))
	}
}

func TestPollNonPositiveIntervalFallsBack(t *testing.T) {
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	thread := conversations.NewThread("c1", conversations.NewService(stack.Client), nil, nil)

	for _, interval := range []time.Duration{0, -time.Second} {
		scope := screen.NewScope(context.Background())
		scope.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			thread.Poll(scope, interval, nil)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("poll with interval %v did not stop on a closed scope", interval)
		}
	}
	if len(backend.Requests()) != 0 {
		t.Fatalf("closed scope must not poll, got %v", backend.Requests())
	}
}
