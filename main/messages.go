package main

import (
	"context"
	"flag"

	"cityconnect/alerts"
	"cityconnect/app"
	"cityconnect/conversations"
	"cityconnect/i18n"
	"cityconnect/types"
)

func runInbox(ctx context.Context, a *app.App, args []string) error {
	scope := a.Scope(ctx)
	defer scope.Close()

	inbox := a.Inbox()
	if err := inbox.Refresh(scope); err != nil {
		return errReported
	}

	p := newPrinter(stdout())
	convs := inbox.Conversations()
	if len(convs) == 0 {
		p.Line("%s", a.Text.T(i18n.KeyInboxEmpty))
		return nil
	}
	p.Title(a.Text.T(i18n.KeyInbox))
	for _, c := range convs {
		last := ""
		if n := len(c.Messages); n > 0 {
			last = c.Messages[n-1].Sender.Name() + ": " + c.Messages[n-1].Content
		}
		p.Line("%s  %s  %s", mutedStyle.Render(c.ID), titleStyle.Render(c.Event.Activity.Title), mutedStyle.Render(last))
	}
	return nil
}

func runChat(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	send := fs.String("send", "", "message to send")
	follow := fs.Bool("follow", false, "keep polling for new messages")
	every := fs.Duration("every", conversations.DefaultPollInterval, "poll interval with -follow")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *every <= 0 {
		return errUsage
	}

	scope := a.Scope(ctx)
	defer scope.Close()

	thread := a.Thread(args[0])
	if err := thread.Open(scope); err != nil {
		return errReported
	}
	p := newPrinter(stdout())
	if act := thread.Activity(); act != nil {
		p.Title(act.Title)
	}
	p.Messages(thread.Messages())

	if *send != "" {
		thread.SetInput(*send)
		if err := thread.Send(scope); err != nil {
			return errReported
		}
		if scope.Closed() {
			return nil
		}
		if msgs := thread.Messages(); len(msgs) > 0 {
			p.Messages(msgs[len(msgs)-1:])
		}
		a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyMessageSent)))
	}

	if *follow {
		// Runs until Ctrl+C cancels ctx.
		thread.Poll(scope, *every, func(fresh []types.Message) {
			p.Messages(fresh)
		})
	}
	return nil
}
