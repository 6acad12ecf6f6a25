package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cityconnect/api"
	"cityconnect/apitest"
	"cityconnect/events"
	"cityconnect/types"
)

func setup(t *testing.T) (*apitest.Backend, *apitest.Stack, *events.Service) {
	t.Helper()
	backend := apitest.NewBackend(t)
	stack := backend.NewStack(t)
	return backend, stack, events.NewService(stack.Client, stack.Session)
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestListFilters(t *testing.T) {
	backend, _, svc := setup(t)
	ctx := context.Background()

	backend.AddEvent(types.Activity{Title: "Foot", Category: types.CategorySport, Date: day("2026-06-01").Add(18 * time.Hour), Location: "48.85,2.35", MaxParticipants: 10})
	backend.AddEvent(types.Activity{Title: "Musée", Category: types.CategoryCulturel, Date: day("2026-06-02").Add(10 * time.Hour), Location: "48.86,2.33", MaxParticipants: 10})

	all, err := svc.List(ctx, events.Filter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected two activities, got %d (%v)", len(all), err)
	}

	sport, err := svc.List(ctx, events.Filter{Category: types.CategorySport})
	if err != nil || len(sport) != 1 || sport[0].Title != "Foot" {
		t.Fatalf("unexpected category result %+v (%v)", sport, err)
	}
	if backend.RequestCount("GET /events?category=Sport") != 1 {
		t.Fatalf("expected category query, got %v", backend.Requests())
	}

	dated, err := svc.List(ctx, events.Filter{Day: day("2026-06-02")})
	if err != nil || len(dated) != 1 || dated[0].Title != "Musée" {
		t.Fatalf("unexpected date result %+v (%v)", dated, err)
	}

	found, err := svc.Find(ctx, sport[0].ID)
	if err != nil || found.Title != "Foot" {
		t.Fatalf("find: %+v %v", found, err)
	}
	if _, err := svc.Find(ctx, "nope"); !errors.Is(err, events.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatorOnlyChanges(t *testing.T) {
	backend, stack, svc := setup(t)
	ctx := context.Background()
	me := stack.SignIn(t, backend, "max")

	mine, err := svc.Create(ctx, types.CreateActivityRequest{
		Title:           "Pique-nique",
		Description:     "Parc",
		Date:            day("2026-07-14"),
		Category:        types.CategorySorties,
		Location:        "48.84,2.33",
		MaxParticipants: 8,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if mine.CreatedBy != me {
		t.Fatalf("expected creator %s, got %s", me, mine.CreatedBy)
	}

	updated, err := svc.Update(ctx, *mine, types.UpdateActivityRequest{Title: "Grand pique-nique"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Grand pique-nique" || updated.Description != "Parc" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := svc.Update(ctx, *mine, types.UpdateActivityRequest{}); !errors.Is(err, events.ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}

	theirs := backend.AddEvent(types.Activity{Title: "Autre", CreatedBy: "u-other", Location: "1,1", MaxParticipants: 2})
	before := len(backend.Requests())
	if err := svc.Cancel(ctx, *theirs); !errors.Is(err, events.ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if len(backend.Requests()) != before {
		t.Fatalf("creator check must run before the request")
	}

	if err := svc.Cancel(ctx, *mine); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok := backend.Event(mine.ID); ok {
		t.Fatalf("expected activity removed")
	}
}

func TestJoinLeaveParticipants(t *testing.T) {
	backend, stack, svc := setup(t)
	ctx := context.Background()
	me := stack.SignIn(t, backend, "nina")
	a := backend.AddEvent(types.Activity{Title: "Tennis", Location: "48.85,2.35", MaxParticipants: 1})

	resp, err := svc.Join(ctx, a.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if resp.Conversation == nil || resp.Conversation.ID == "" {
		t.Fatalf("expected conversation in join response, got %+v", resp)
	}

	people, err := svc.Participants(ctx, a.ID)
	if err != nil || len(people) != 1 || people[0].ID != me {
		t.Fatalf("unexpected participants %+v (%v)", people, err)
	}

	other := backend.NewStack(t)
	other.SignIn(t, backend, "olga")
	_, err = events.NewService(other.Client, other.Session).Join(ctx, a.ID)
	if api.Message(err) != "Activité complète" {
		t.Fatalf("expected full activity message, got %v", err)
	}

	if _, err := svc.Leave(ctx, a.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	stored, _ := backend.Event(a.ID)
	if len(stored.Participants) != 0 {
		t.Fatalf("expected no participants after leave, got %v", stored.Participants)
	}

	backend.JoinReturnsConversation(false)
	resp, err = svc.Join(ctx, a.ID)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if resp.Conversation != nil || resp.Message == "" {
		t.Fatalf("expected bare confirmation, got %+v", resp)
	}
}

func TestOnDay(t *testing.T) {
	list := []types.Activity{
		{ID: "a", Date: time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)},
		{ID: "b", Date: time.Date(2026, 5, 2, 0, 15, 0, 0, time.UTC)},
		{ID: "c", Date: time.Date(2026, 5, 2, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600))},
	}

	got := events.OnDay(list, day("2026-05-01"))
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected filter result %+v", got)
	}

	undated := []types.Activity{{ID: "z"}}
	if got := events.OnDay(undated, time.Time{}); len(got) != 0 {
		t.Fatalf("undated activity must never match, got %+v", got)
	}

	if _, err := events.ParseDay("01/05/2026"); err == nil {
		t.Fatalf("expected invalid day error")
	}
}
