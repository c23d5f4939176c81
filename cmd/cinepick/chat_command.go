package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/user"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cinepick/internal/delivery"
	"cinepick/internal/session"
)

const chatHelp = "Commands: watch, dislike, watched, next, rate <1-10>, help, quit. Anything else is a new request."

// chatSessions is the part of session.Manager the chat loop drives.
type chatSessions interface {
	HandlePrompt(ctx context.Context, conversationID, userID, text string) (session.Reply, error)
	Offer(ctx context.Context, conversationID string) (session.Reply, error)
	Act(ctx context.Context, conversationID string, movieID int64, action session.Action) (session.Reply, error)
	Rate(ctx context.Context, conversationID string, movieID int64, rating int) (session.Reply, error)
}

func newChatCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive recommendation session on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := &chatPrinter{out: cmd.OutOrStdout()}
			recorder := delivery.NewRecorder()
			recorder.OnMessage = printer.message

			app, err := newApplicationFromContext(cmd.Context(), ctx, recorder)
			if err != nil {
				return err
			}
			defer app.Close()

			uid := strings.TrimSpace(userID)
			if uid == "" {
				uid = defaultChatUser()
			}
			loop := &chatLoop{
				sessions:       app.sessions,
				printer:        printer,
				conversationID: "cli-" + uuid.NewString(),
				userID:         uid,
			}
			return loop.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id for preference memory (defaults to the login name)")
	return cmd
}

func defaultChatUser() string {
	if u, err := user.Current(); err == nil && strings.TrimSpace(u.Username) != "" {
		return u.Username
	}
	return "local"
}

// chatPrinter serializes output from the loop and from delivery callbacks,
// which rating prompts trigger from timer goroutines.
type chatPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *chatPrinter) line(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, text)
}

func (p *chatPrinter) message(msg delivery.Message) {
	switch msg.Kind {
	case delivery.KindOffer:
		p.line(delivery.OfferText(msg.Candidate) + "\n")
	case delivery.KindRating:
		p.line(delivery.RatingPromptText(msg.Candidate))
	default:
		p.line(msg.Text)
	}
}

type chatLoop struct {
	sessions       chatSessions
	printer        *chatPrinter
	conversationID string
	userID         string

	current  int64
	watching int64
}

func (l *chatLoop) run(ctx context.Context, in io.Reader) error {
	l.printer.line("What do you feel like watching? " + chatHelp)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		fields := strings.Fields(strings.ToLower(input))
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "help", "?":
			l.printer.line(chatHelp)
			continue
		}

		reply, err := l.handle(ctx, input, fields)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			l.printer.line("error: " + err.Error())
			continue
		}
		l.track(reply)
	}
	return scanner.Err()
}

func (l *chatLoop) handle(ctx context.Context, input string, fields []string) (session.Reply, error) {
	switch fields[0] {
	case "next":
		return l.sessions.Offer(ctx, l.conversationID)
	case string(session.ActionWatch), string(session.ActionDislike), string(session.ActionWatched):
		if len(fields) > 1 {
			break
		}
		if l.current == 0 {
			return session.Reply{}, errors.New("nothing has been offered yet; describe what you feel like watching")
		}
		action, err := session.ParseAction(fields[0])
		if err != nil {
			return session.Reply{}, err
		}
		return l.sessions.Act(ctx, l.conversationID, l.current, action)
	case "rate":
		if len(fields) != 2 {
			return session.Reply{}, errors.New("usage: rate <1-10>")
		}
		rating, err := strconv.Atoi(fields[1])
		if err != nil {
			return session.Reply{}, fmt.Errorf("%w: %q", session.ErrInvalidRating, fields[1])
		}
		target := l.watching
		if target == 0 {
			target = l.current
		}
		if target == 0 {
			return session.Reply{}, errors.New("nothing to rate yet")
		}
		return l.sessions.Rate(ctx, l.conversationID, target, rating)
	}
	return l.sessions.HandlePrompt(ctx, l.conversationID, l.userID, input)
}

func (l *chatLoop) track(reply session.Reply) {
	switch reply.Outcome {
	case session.OutcomeOffered:
		if reply.Candidate != nil {
			l.current = reply.Candidate.ID
		}
	case session.OutcomeWatching:
		if reply.Candidate != nil {
			l.watching = reply.Candidate.ID
		}
	case session.OutcomeRated:
		if reply.Candidate != nil && reply.Candidate.ID == l.watching {
			l.watching = 0
		}
	case session.OutcomeNoResult, session.OutcomeExhausted:
		l.current = 0
	}
}
