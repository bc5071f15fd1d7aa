package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"oos/pkg/clarify"
	"oos/pkg/config"
	"oos/pkg/history"
	"oos/pkg/metrics"
	"oos/pkg/persistence"
)

// runClarify starts a new clarification session from the request given on
// the command line. When stdin is a terminal the session runs
// interactively to completion; otherwise the session is saved so it can
// be resumed later with `oos resume`.
func runClarify(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: oos clarify <request...>")
		return 1
	}
	request := strings.Join(args, " ")

	cfg := config.GetConfig()
	log := history.NewLog(cfg.HistoryDir())

	rec := metrics.NewRecorder()
	session, err := clarify.NewSessionWith(request, clarify.Options{
		ConfidenceThreshold: cfg.Clarify.ConfidenceThreshold,
		MaxRounds:           cfg.Clarify.MaxRounds,
		History:             log,
		Metrics:             rec,
	})
	if err != nil {
		if errors.Is(err, clarify.ErrEmptyInput) {
			fmt.Fprintln(os.Stderr, "Request must not be empty")
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		return 2
	}

	printIntent(session)

	if session.State() == clarify.StateReady {
		fmt.Println("Request is clear enough; no clarification needed.")
		return 0
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return suspendSession(cfg, session)
	}
	return runInteractive(session)
}

// runResume reloads a suspended session from the store and continues it
// interactively.
func runResume(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: oos resume <session-id>")
		return 1
	}

	cfg := config.GetConfig()

	store, err := persistence.Open(cfg.DatabasePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session store: %v\n", err)
		return 2
	}
	defer store.Close()

	snap, err := store.LoadSession(args[0])
	if err != nil {
		if errors.Is(err, persistence.ErrSessionNotFound) {
			fmt.Fprintf(os.Stderr, "No session with id %s\n", args[0])
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to load session: %v\n", err)
		return 2
	}

	session, err := clarify.RestoreWith(snap, clarify.Options{
		ConfidenceThreshold: cfg.Clarify.ConfidenceThreshold,
		MaxRounds:           cfg.Clarify.MaxRounds,
		History:             history.NewLog(cfg.HistoryDir()),
		Metrics:             metrics.NewRecorder(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to restore session: %v\n", err)
		return 2
	}

	if session.State().IsTerminal() {
		fmt.Printf("Session %s already finished in state %s.\n", session.ID(), session.State())
		return 0
	}

	printIntent(session)
	code := runInteractive(session)

	// Persist the outcome so repeated resumes see the final state.
	if err := store.SaveSession(session.Snapshot()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", err)
	}
	return code
}

// runSessions lists the sessions currently held in the store.
func runSessions(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: oos sessions")
		return 1
	}

	cfg := config.GetConfig()

	store, err := persistence.Open(cfg.DatabasePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session store: %v\n", err)
		return 2
	}
	defer store.Close()

	infos, err := store.ListSessions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list sessions: %v\n", err)
		return 2
	}
	if len(infos) == 0 {
		fmt.Println("No stored sessions.")
		return 0
	}
	for _, info := range infos {
		fmt.Printf("%s  %-16s  %s\n", info.ID, info.State, info.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return 0
}

// runInteractive drives question/answer rounds until the session reaches
// a terminal state or the user bails out.
func runInteractive(session *clarify.Session) int {
	reader := bufio.NewReader(os.Stdin)

	for session.State() == clarify.StateAwaitingAnswers {
		questions := session.Questions()
		fmt.Printf("\nRound %d - answer what you can, leave blank to skip, 'q' to abandon:\n", session.Round()+1)
		for i, q := range questions {
			fmt.Printf("  %d. %s\n", i+1, q.Text)
			for _, opt := range q.Options {
				fmt.Printf("       - %s\n", opt)
			}
		}

		answers := make(map[int]string)
		for i := range questions {
			fmt.Printf("[%d] > ", i+1)
			line, err := reader.ReadString('\n')
			if err != nil {
				fmt.Fprintln(os.Stderr, "\nInput closed; abandoning session.")
				_ = session.Cancel()
				return 1
			}
			line = strings.TrimSpace(line)
			if line == "q" {
				if err := session.Cancel(); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to cancel: %v\n", err)
					return 2
				}
				fmt.Println("Session abandoned.")
				return 0
			}
			if line != "" {
				answers[i] = line
			}
		}

		if err := session.SubmitAnswers(answers); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to process answers: %v\n", err)
			return 2
		}
		printIntent(session)
	}

	switch session.State() {
	case clarify.StateReady:
		input := session.CleanedInput()
		fmt.Println("\nRefined request:")
		fmt.Printf("  %s\n", input.NormalizedText)
		return 0
	case clarify.StateAbandoned:
		fmt.Println("Session abandoned.")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Session stopped in unexpected state %s\n", session.State())
		return 2
	}
}

// suspendSession saves a pending session for later resumption. Used when
// stdin is not a terminal so answers cannot be collected.
func suspendSession(cfg config.Config, session *clarify.Session) int {
	store, err := persistence.Open(cfg.DatabasePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session store: %v\n", err)
		return 2
	}
	defer store.Close()

	if err := store.SaveSession(session.Snapshot()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save session: %v\n", err)
		return 2
	}

	fmt.Println("\nQuestions:")
	for i, q := range session.Questions() {
		fmt.Printf("  %d. %s\n", i+1, q.Text)
	}
	fmt.Printf("\nSession saved. Resume with: oos resume %s\n", session.ID())
	return 0
}

func printIntent(session *clarify.Session) {
	input := session.CleanedInput()
	fmt.Printf("Intent: %s (confidence %.2f)\n", input.Intent, input.Confidence)
	if input.Ambiguous {
		fmt.Println("The request contains ambiguous phrasing.")
	}
}
