package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"cityconnect/app"
	"cityconnect/config"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app.App, args []string) error
}

var commands = map[string]command{
	"login":          {"login [-email e] [-password p]", runLogin},
	"register":       {"register [-username u] [-email e] [-password p]", runRegister},
	"google":         {"google -id-token t", runGoogle},
	"logout":         {"logout", runLogout},
	"whoami":         {"whoami", runWhoami},
	"password":       {"password [-current p] [-new p]", runPassword},
	"username":       {"username <name>", runUsername},
	"delete-account": {"delete-account [-yes]", runDeleteAccount},
	"rate":           {"rate <user id> <1-5>", runRate},
	"user":           {"user <user id>", runUser},
	"bio":            {"bio <text>", runBio},
	"events":         {"events [-category c] [-date YYYY-MM-DD]", runEvents},
	"map":            {"map [-filter f] [-category c] [-date d] [-near lat,lon] [-place name]", runMap},
	"create":         {"create -at lat,lon -title t -desc d -date RFC3339 -category c -max n [-photo path]", runCreate},
	"edit":           {"edit <activity id> [-title t] [-desc d]", runEdit},
	"cancel":         {"cancel <activity id>", runCancel},
	"join":           {"join <activity id>", runJoin},
	"leave":          {"leave <activity id>", runLeave},
	"participants":   {"participants <activity id>", runParticipants},
	"inbox":          {"inbox", runInbox},
	"chat":           {"chat <conversation id> [-send text] [-follow] [-every 5s]", runChat},
	"lang":           {"lang [en|fr]", runLang},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	out := newPrinter(os.Stdout)
	a, err := app.New(ctx, cfg, out, nil)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	err = cmd.run(ctx, a, os.Args[2:])
	a.Close()
	switch {
	case err == nil:
	case errors.Is(err, errReported):
		os.Exit(1)
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "usage: cityconnect %s\n", cmd.usage)
		os.Exit(2)
	default:
		out.Error(err)
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "usage: cityconnect <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func promptInput(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// orPrompt returns v, asking for it on stdin when empty.
func orPrompt(v, prompt string) string {
	if v != "" {
		return v
	}
	return promptInput(prompt)
}
