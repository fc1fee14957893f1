package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/adapters/cli"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

const maxClarifications = 3

var errExit = errors.New("exit")

type session struct {
	ctx     context.Context
	svc     app.ApplicationService
	company *core.Company
	reader  *bufio.Reader
	out     io.Writer
	render  *cli.Renderer
}

// Run starts the interactive loop. Slash commands are dispatched
// deterministically; anything else goes to the booking assistant, and a
// draft is booked only after the user approves it.
func Run(ctx context.Context, svc app.ApplicationService, company *core.Company, in io.Reader, out io.Writer, render *cli.Renderer) error {
	s := &session{
		ctx:     ctx,
		svc:     svc,
		company: company,
		reader:  bufio.NewReader(in),
		out:     out,
		render:  render,
	}

	fmt.Fprintln(out, "Metallbau Zeiterfassung")
	fmt.Fprintf(out, "Company: %s — %s (%s)\n", company.CompanyCode, company.Name, company.BaseCurrency)
	fmt.Fprintln(out, "Describe your work to book time, or use /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, err := s.reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				return nil
			}
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := s.dispatch(input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return nil
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		if err := s.assist(input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func (s *session) dispatch(input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(tokens[0]), tokens[1:]

	switch cmd {
	case "types":
		types, err := s.svc.ListTimeTypes(s.ctx, s.company.ID)
		if err != nil {
			return err
		}
		printTimeTypes(s.out, types)

	case "machines":
		machines, err := s.svc.ListMachines(s.ctx, s.company.ID)
		if err != nil {
			return err
		}
		printMachines(s.out, machines)

	case "products":
		products, err := s.svc.ListProducts(s.ctx, s.company.ID)
		if err != nil {
			return err
		}
		printProducts(s.out, products)

	case "projects":
		projects, err := s.svc.ListProjects(s.ctx, s.company.ID, nil)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, s.render.Projects(projects))

	case "controlling", "ctl":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /controlling <project>")
			return nil
		}
		p, err := s.svc.GetProject(s.ctx, s.company.ID, args[0])
		if err != nil {
			return err
		}
		pc, err := s.svc.GetControlling(s.ctx, s.company.ID, p.Project.ID)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, s.render.Controlling(pc))

	case "reconcile":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /reconcile <project>")
			return nil
		}
		p, err := s.svc.GetProject(s.ctx, s.company.ID, args[0])
		if err != nil {
			return err
		}
		res, err := s.svc.ReconcileProject(s.ctx, s.company.ID, p.Project.ID)
		if err != nil {
			return err
		}
		if res.Repaired {
			fmt.Fprintf(s.out, "Repaired: %s → %s CHF\n", res.Previous.StringFixed(2), res.Corrected.StringFixed(2))
		} else {
			fmt.Fprintf(s.out, "Consistent: %s CHF\n", res.Corrected.StringFixed(2))
		}

	case "help", "h":
		printHelp(s.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(s.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// assist runs the interpret, clarify, confirm, book loop for one report.
func (s *session) assist(input string) error {
	fmt.Fprintln(s.out, "[AI] Processing...")
	text := input

	for round := 1; ; round++ {
		if round > maxClarifications {
			fmt.Fprintln(s.out, "Could not produce a booking. Try the book-time command instead.")
			return nil
		}

		res, err := s.svc.InterpretBooking(s.ctx, s.company.ID, text)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, s.render.Draft(res))

		if res.Draft.NeedsClarification() {
			fmt.Fprint(s.out, "> ")
			followUp, _ := s.reader.ReadString('\n')
			followUp = strings.TrimSpace(followUp)

			// Slash command during clarification cancels the assistant.
			if strings.HasPrefix(followUp, "/") {
				fmt.Fprintln(s.out, "(assistant cancelled)")
				return s.dispatch(followUp)
			}
			if followUp == "" || strings.EqualFold(followUp, "cancel") {
				fmt.Fprintln(s.out, "Cancelled.")
				return nil
			}
			text = fmt.Sprintf("Original report: %s\nQuestion asked: %s\nUser answer: %s",
				text, res.Draft.Clarification, followUp)
			fmt.Fprintln(s.out, "[AI] Thinking...")
			continue
		}

		if res.Estimate == nil {
			fmt.Fprintln(s.out, "Draft cannot be booked as proposed.")
			return nil
		}
		if !cli.Confirm(s.reader, s.out, "\nBook this? (y/n): ") {
			fmt.Fprintln(s.out, "Cancelled.")
			return nil
		}
		entry, err := s.svc.BookDraft(s.ctx, s.company.ID, nil, *res.Draft)
		if err != nil {
			fmt.Fprintf(s.out, "Booking FAILED: %v\n", err)
			return nil
		}
		fmt.Fprint(s.out, s.render.TimeEntry(entry))
		return nil
	}
}
