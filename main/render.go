package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"cityconnect/activitymap"
	"cityconnect/alerts"
	"cityconnect/api"
	"cityconnect/types"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	senderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

// printer renders alerts and listings to a terminal.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) Report(a alerts.Alert) {
	var style lipgloss.Style
	switch a.Kind {
	case alerts.KindSuccess:
		style = successStyle
	case alerts.KindValidation, alerts.KindPermission:
		style = warnStyle
	default:
		style = errorStyle
	}
	fmt.Fprintln(p.w, style.Render(a.Message))
}

func (p *printer) Error(err error) {
	msg := api.Message(err)
	if status := alerts.Status(err); status != "" {
		msg += mutedStyle.Render(" (" + status + ")")
	}
	fmt.Fprintln(p.w, errorStyle.Render("✗ ")+msg)
}

func (p *printer) Title(s string) {
	fmt.Fprintln(p.w, titleStyle.Render(s))
}

func (p *printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) User(u *types.User) {
	p.Title(u.Username)
	p.Line("%s %s", mutedStyle.Render("id:"), u.ID)
	if u.Email != "" {
		p.Line("%s %s", mutedStyle.Render("email:"), u.Email)
	}
	if u.Bio != "" {
		p.Line("%s %s", mutedStyle.Render("bio:"), u.Bio)
	}
	if u.AverageRating != nil {
		p.Line("%s %.1f/5", mutedStyle.Render("rating:"), *u.AverageRating)
	}
}

func (p *printer) Activities(list []types.Activity) {
	for _, a := range list {
		when := "-"
		if !a.Date.IsZero() {
			when = a.Date.Local().Format("2006-01-02 15:04")
		}
		p.Line("%s  %s  %s  %s  %d/%d  %s",
			mutedStyle.Render(a.ID),
			titleStyle.Render(a.Title),
			a.Category,
			when,
			len(a.Participants), a.MaxParticipants,
			mutedStyle.Render(a.Location),
		)
	}
}

func (p *printer) Markers(markers []activitymap.Marker) {
	for _, m := range markers {
		p.Line("📍 %.5f, %.5f  %s %s", m.Position.Latitude, m.Position.Longitude, titleStyle.Render(m.Title), mutedStyle.Render("("+string(m.Category)+")"))
	}
}

func (p *printer) Messages(msgs []types.Message) {
	for _, m := range msgs {
		ts := mutedStyle.Render(m.Timestamp.Local().Format(time.Kitchen))
		p.Line("%s %s %s", ts, senderStyle.Render(m.Sender.Name()+":"), strings.TrimSpace(m.Content))
	}
}

// output receives listings; tests swap it out.
var output io.Writer = os.Stdout

func stdout() io.Writer {
	return output
}
