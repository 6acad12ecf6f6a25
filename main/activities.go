package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"cityconnect/activitymap"
	"cityconnect/alerts"
	"cityconnect/app"
	"cityconnect/events"
	"cityconnect/geo"
	"cityconnect/i18n"
	"cityconnect/types"
	"cityconnect/upload"
)

func runEvents(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	category := fs.String("category", "", "Sport, Culturel, Sorties or Culinaire")
	date := fs.String("date", "", "YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var f events.Filter
	if *category != "" {
		c, err := types.ParseCategory(*category)
		if err != nil {
			return err
		}
		f.Category = c
	}
	if *date != "" {
		day, err := events.ParseDay(*date)
		if err != nil {
			return err
		}
		f.Day = day
	}

	list, err := a.Events.List(ctx, f)
	if err != nil {
		return fail(a, err, alerts.KindRead)
	}
	p := newPrinter(stdout())
	if len(list) == 0 {
		p.Line("%s", a.Text.T(i18n.KeyNoActivities))
		return nil
	}
	p.Title(a.Text.T(i18n.KeyActivities))
	p.Activities(list)
	return nil
}

func runMap(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("map", flag.ContinueOnError)
	filter := fs.String("filter", "", "aroundMe, byLocality, activity or date")
	category := fs.String("category", "", "category for the activity filter")
	date := fs.String("date", "", "YYYY-MM-DD for the date filter")
	near := fs.String("near", "", "lat,lon for the locality filter")
	place := fs.String("place", "", "place name for the locality filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := activitymap.ParseFilter(*filter)
	if err != nil {
		return err
	}
	params := activitymap.Params{Filter: f, Category: types.Category(*category), Place: *place}
	if *near != "" {
		pos, ok := geo.ParseLocation(*near)
		if !ok {
			return fmt.Errorf("invalid -near %q", *near)
		}
		params.Locality = &pos
	}
	if *date != "" {
		day, err := events.ParseDay(*date)
		if err != nil {
			return err
		}
		params.Day = day
	}

	scope := a.Scope(ctx)
	defer scope.Close()
	m := a.Map()
	if err := m.Focus(scope, params); err != nil {
		return errReported
	}

	p := newPrinter(stdout())
	r := m.Region()
	p.Line("%s %.4f, %.4f (±%.2f°)", mutedStyle.Render("region"), r.Center.Latitude, r.Center.Longitude, r.LatDelta/2)
	markers := m.Markers()
	p.Title(a.Text.T(i18n.KeyMarkers, len(markers)))
	p.Markers(markers)
	return nil
}

func runCreate(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	at := fs.String("at", "", "lat,lon of the map press")
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	date := fs.String("date", "", "start time, RFC 3339")
	category := fs.String("category", string(activitymap.DefaultCategory), "category")
	maxParticipants := fs.Int("max", 0, "participant cap, 1 to 100")
	photo := fs.String("photo", "", "optional image file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scope := a.Scope(ctx)
	defer scope.Close()
	m := a.Map()
	// A refused location still arms the map.
	_ = m.Focus(scope, activitymap.Params{Filter: activitymap.FilterCreateActivity})

	pos, ok := geo.ParseLocation(*at)
	if !ok {
		a.Reporter.Report(alerts.Validation(a.Text.T(i18n.KeyMissingLocation)))
		return errReported
	}
	if err := m.Press(pos); err != nil {
		return err
	}

	var start time.Time
	if *date != "" {
		t, err := time.Parse(time.RFC3339, *date)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		start = t
	}
	var picked *upload.Photo
	if *photo != "" {
		ph, err := upload.ReadPhoto(*photo)
		if err != nil {
			return err
		}
		picked = &ph
	}

	_ = m.EditDraft(func(d *activitymap.Draft) {
		d.Title = *title
		d.Description = *desc
		d.Date = start
		d.Category = types.Category(*category)
		d.MaxParticipants = *maxParticipants
		d.Photo = picked
	})

	created, err := m.Submit(scope)
	if err != nil {
		return errReported
	}
	newPrinter(stdout()).Activities([]types.Activity{*created})
	return nil
}

func runEdit(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	title := fs.String("title", "", "new title")
	desc := fs.String("desc", "", "new description")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	activity, err := a.Events.Find(ctx, args[0])
	if err != nil {
		return fail(a, err, alerts.KindRead)
	}
	updated, err := a.Events.Update(ctx, *activity, types.UpdateActivityRequest{Title: *title, Description: *desc})
	if err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyActivityUpdated)))
	newPrinter(stdout()).Activities([]types.Activity{*updated})
	return nil
}

func runCancel(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	activity, err := a.Events.Find(ctx, args[0])
	if err != nil {
		return fail(a, err, alerts.KindRead)
	}
	if err := a.Events.Cancel(ctx, *activity); err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyActivityCanceled)))
	return nil
}

func runJoin(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	scope := a.Scope(ctx)
	defer scope.Close()

	out, err := a.Map().Join(scope, args[0])
	if err != nil {
		return errReported
	}
	if !out.OpensConversation() {
		return nil
	}

	// Joining lands in the activity's conversation.
	thread := a.Thread(out.ConversationID)
	if err := thread.Open(scope); err != nil {
		return errReported
	}
	p := newPrinter(stdout())
	p.Title(a.Text.T(i18n.KeyJoined) + mutedStyle.Render("  "+out.ConversationID))
	p.Messages(thread.Messages())
	return nil
}

func runLeave(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	resp, err := a.Events.Leave(ctx, args[0])
	if err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	msg := strings.TrimSpace(resp.Message)
	if msg == "" {
		msg = a.Text.T(i18n.KeyLeft)
	}
	a.Reporter.Report(alerts.Success(msg))
	return nil
}

func runParticipants(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	people, err := a.Events.Participants(ctx, args[0])
	if err != nil {
		return fail(a, err, alerts.KindRead)
	}
	p := newPrinter(stdout())
	p.Title(a.Text.T(i18n.KeyParticipants))
	for _, u := range people {
		p.Line("%s  %s", mutedStyle.Render(u.ID), u.Username)
	}
	return nil
}
