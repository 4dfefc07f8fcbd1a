package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/Rrens/alap/internal/domain"
	"github.com/Rrens/alap/internal/markdown"
	"github.com/Rrens/alap/internal/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
)

const clearLine = "\r\033[K"

var commands = []string{"/new", "/list", "/switch", "/delete", "/show", "/help", "/quit"}

const helpText = `Commands:
  /new          start a new discussion
  /list         list discussions
  /switch N     open discussion N
  /delete N     delete discussion N (asks first)
  /show         render the open discussion
  /help         show this help
  /quit         leave
Anything else is sent to the assistant.`

type prompter interface {
	Prompt(prompt string) (string, error)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	youStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	activeMarker = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("●")
)

type repl struct {
	chat     *service.ChatService
	in       prompter
	out      io.Writer
	width    int
	remember func(string)
}

func newREPL(chat *service.ChatService, in prompter, out io.Writer, width int) *repl {
	return &repl{chat: chat, in: in, out: out, width: width, remember: func(string) {}}
}

func (r *repl) run(ctx context.Context) error {
	r.greet()

	for {
		input, err := r.in.Prompt("› ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.remember(input)

		if r.handle(ctx, input) {
			return nil
		}
	}
}

func (r *repl) greet() {
	p := r.chat.Persona()
	name := p.DisplayName
	if name == "" {
		name = p.Name
	}
	fmt.Fprintln(r.out, titleStyle.Render(name))
	if len(p.SuggestedPrompts) > 0 {
		fmt.Fprintln(r.out, dimStyle.Render("Try: "+strings.Join(p.SuggestedPrompts, " · ")))
	}
	fmt.Fprintln(r.out, dimStyle.Render("Type /help for commands."))
}

// handle runs one line of input. It returns true when the user quits.
func (r *repl) handle(ctx context.Context, input string) bool {
	if !strings.HasPrefix(input, "/") {
		r.send(ctx, input)
		return false
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/new":
		r.chat.NewSession(ctx)
		fmt.Fprintln(r.out, dimStyle.Render("Started a new discussion."))
	case "/list":
		r.list()
	case "/switch":
		sess, ok := r.pick(arg)
		if !ok {
			return false
		}
		if err := r.chat.SelectSession(sess.ID); err != nil {
			r.fail(err)
			return false
		}
		fmt.Fprintln(r.out, dimStyle.Render("Opened "+strconv.Quote(sess.Title)))
	case "/delete":
		r.delete(ctx, arg)
	case "/show":
		r.show()
	default:
		fmt.Fprintln(r.out, warnStyle.Render("Unknown command "+cmd+". Type /help."))
	}
	return false
}

func (r *repl) list() {
	v := r.chat.View()
	for i, s := range v.Sessions {
		marker := " "
		if v.ActiveSession != nil && s.ID == v.ActiveSession.ID {
			marker = activeMarker
		}
		fmt.Fprintf(r.out, "%s %2d. %s %s\n", marker, i+1, s.Title,
			dimStyle.Render(fmt.Sprintf("(%d messages)", len(s.Messages))))
	}
}

// pick resolves a 1-based position from /list
func (r *repl) pick(arg string) (domain.ChatSession, bool) {
	sessions := r.chat.View().Sessions
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(sessions) {
		fmt.Fprintln(r.out, warnStyle.Render(fmt.Sprintf("No discussion %q. Use /list to see them.", arg)))
		return domain.ChatSession{}, false
	}
	return sessions[n-1], true
}

func (r *repl) delete(ctx context.Context, arg string) {
	sess, ok := r.pick(arg)
	if !ok {
		return
	}
	if err := r.chat.RequestDelete(sess.ID); err != nil {
		r.fail(err)
		return
	}

	answer, err := r.in.Prompt(fmt.Sprintf("Delete %q? [y/N] ", sess.Title))
	if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		r.chat.CancelDelete()
		fmt.Fprintln(r.out, dimStyle.Render("Kept."))
		return
	}

	if err := r.chat.ConfirmDelete(ctx); err != nil {
		r.fail(err)
		return
	}
	fmt.Fprintln(r.out, dimStyle.Render("Deleted."))
}

func (r *repl) show() {
	active := r.chat.View().ActiveSession
	if active == nil {
		return
	}
	fmt.Fprintln(r.out, titleStyle.Render(active.Title))
	for _, m := range active.Messages {
		if m.Role == domain.RoleUser {
			fmt.Fprintln(r.out, youStyle.Render("You: ")+m.Content)
			continue
		}
		doc := markdown.Render(m.Content)
		if doc.IsEmpty() {
			fmt.Fprintln(r.out, dimStyle.Render("Reasoning..."))
			continue
		}
		fmt.Fprintln(r.out, markdown.Terminal(doc, r.width))
	}
}

// send streams one turn. Interrupt cancels the turn instead of exiting.
func (r *repl) send(ctx context.Context, text string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var printed string
	waiting := false

	_, err := r.chat.Send(turnCtx, text, func(ev service.TurnEvent) {
		switch ev.State {
		case service.TurnAssistantPending:
			fmt.Fprint(r.out, dimStyle.Render("Reasoning..."))
			waiting = true
		case service.TurnStreaming:
			if waiting {
				fmt.Fprint(r.out, clearLine)
				waiting = false
			}
			if strings.HasPrefix(ev.Content, printed) {
				fmt.Fprint(r.out, ev.Content[len(printed):])
			} else {
				fmt.Fprint(r.out, "\n"+ev.Content)
			}
			printed = ev.Content
		case service.TurnFailed:
			if waiting {
				fmt.Fprint(r.out, clearLine)
				waiting = false
			}
			if printed != "" {
				fmt.Fprintln(r.out)
			}
			fmt.Fprint(r.out, warnStyle.Render(ev.Content))
		}
	})
	if err != nil {
		r.fail(err)
		return
	}
	fmt.Fprintln(r.out)
}

func (r *repl) fail(err error) {
	fmt.Fprintln(r.out, warnStyle.Render(err.Error()))
}

func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}
