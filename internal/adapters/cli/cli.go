package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// App holds what the commands need. Interactive, when set, runs for a bare
// invocation with no subcommand.
type App struct {
	Svc         app.ApplicationService
	In          io.Reader
	Out         io.Writer
	Color       bool
	Interactive func(ctx context.Context, company *core.Company) error

	company *core.Company
	render  *Renderer
}

// NewRootCmd creates the top-level command and registers all subcommands.
func NewRootCmd(a *App) *cobra.Command {
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	a.render = NewRenderer(a.Color)

	root := &cobra.Command{
		Use:           "app",
		Short:         "Metallbau time and cost accounting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			company, err := a.Svc.LoadDefaultCompany(cmd.Context())
			if err != nil {
				return fmt.Errorf("load company: %w", err)
			}
			a.company = company
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Interactive == nil {
				return cmd.Help()
			}
			return a.Interactive(cmd.Context(), a.company)
		},
	}
	root.SetOut(a.Out)
	root.SetIn(a.In)

	root.AddCommand(
		newBookTimeCmd(a),
		newBookMachineCmd(a),
		newConsumeCmd(a),
		newProjectsCmd(a),
		newControllingCmd(a),
		newReconcileCmd(a),
		newSeedTimeTypesCmd(a),
		newInterpretCmd(a),
	)
	return root
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func newBookTimeCmd(a *App) *cobra.Command {
	var (
		timeType, project, location, date, rate, note string
		minutes                                       int
		surcharges                                    []string
	)

	cmd := &cobra.Command{
		Use:   "book-time",
		Short: "Book labor time, costed with surcharges",
		Example: "  app book-time --type MONTAGE --project PRJ-2026-00001 --minutes 240 \\\n" +
			"    --location BAUSTELLE --surcharge SAMSTAG",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			req := app.BookTimeRequest{
				CompanyID:       a.company.ID,
				Date:            d,
				DurationMinutes: minutes,
				TimeTypeCode:    timeType,
				ProjectRef:      project,
				WorkLocation:    core.WorkLocation(strings.ToUpper(location)),
				Description:     note,
			}
			for _, s := range surcharges {
				req.Surcharges = append(req.Surcharges, core.SurchargeType(strings.ToUpper(s)))
			}
			if rate != "" {
				r, err := decimal.NewFromString(rate)
				if err != nil {
					return fmt.Errorf("invalid rate %q: %w", rate, err)
				}
				req.BaseHourlyRate = &r
			}

			entry, err := a.Svc.BookTime(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(a.Out, a.render.TimeEntry(entry))
			return nil
		},
	}

	cmd.Flags().StringVar(&timeType, "type", "", "Time type code, e.g. PROJEKT")
	cmd.Flags().StringVar(&project, "project", "", "Project number or id")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Duration in minutes")
	cmd.Flags().StringVar(&location, "location", "", "WERKSTATT, BAUSTELLE or BUERO")
	cmd.Flags().StringSliceVar(&surcharges, "surcharge", nil, "Surcharge code (repeatable)")
	cmd.Flags().StringVar(&rate, "rate", "", "Base hourly rate, defaults to the rate table")
	cmd.Flags().StringVar(&date, "date", "", "Work date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&note, "note", "", "Description")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("minutes")

	return cmd
}

func newBookMachineCmd(a *App) *cobra.Command {
	var machine, project, hours, date, note string

	cmd := &cobra.Command{
		Use:   "book-machine",
		Short: "Book machine hours on a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			h, err := decimal.NewFromString(hours)
			if err != nil {
				return fmt.Errorf("invalid hours %q: %w", hours, err)
			}
			b, err := a.Svc.BookMachine(cmd.Context(), app.BookMachineRequest{
				CompanyID:     a.company.ID,
				MachineCode:   machine,
				ProjectRef:    project,
				Date:          d,
				DurationHours: h,
				Description:   note,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Machine booking #%d: %s h × %s CHF/h = %s CHF\n",
				b.ID, b.DurationHours.String(), b.HourlyRate.StringFixed(2), b.TotalCost.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&machine, "machine", "", "Machine code")
	cmd.Flags().StringVar(&project, "project", "", "Project number or id")
	cmd.Flags().StringVar(&hours, "hours", "", "Duration in hours, e.g. 2.5")
	cmd.Flags().StringVar(&date, "date", "", "Booking date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&note, "note", "", "Description")
	_ = cmd.MarkFlagRequired("machine")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("hours")

	return cmd
}

func newConsumeCmd(a *App) *cobra.Command {
	var product, project, qty, scrap, date, note string

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Book material consumption on a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			q, err := decimal.NewFromString(qty)
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", qty, err)
			}
			s := decimal.Zero
			if scrap != "" {
				if s, err = decimal.NewFromString(scrap); err != nil {
					return fmt.Errorf("invalid scrap %q: %w", scrap, err)
				}
			}
			c, err := a.Svc.ConsumeMaterial(cmd.Context(), app.ConsumeMaterialRequest{
				CompanyID:     a.company.ID,
				ProductCode:   product,
				ProjectRef:    project,
				Date:          d,
				Quantity:      q,
				ScrapQuantity: s,
				Description:   note,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Material consumption #%d: %s × %s CHF = %s CHF\n",
				c.ID, c.Quantity.String(), c.UnitPrice.StringFixed(2), c.TotalCost.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Product code")
	cmd.Flags().StringVar(&project, "project", "", "Project number or id")
	cmd.Flags().StringVar(&qty, "qty", "", "Quantity consumed")
	cmd.Flags().StringVar(&scrap, "scrap", "", "Scrap quantity (recorded only)")
	cmd.Flags().StringVar(&date, "date", "", "Booking date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&note, "note", "", "Description")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func newProjectsCmd(a *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *core.ProjectStatus
			if status != "" {
				s := core.ProjectStatus(strings.ToUpper(status))
				filter = &s
			}
			projects, err := a.Svc.ListProjects(cmd.Context(), a.company.ID, filter)
			if err != nil {
				return err
			}
			fmt.Fprint(a.Out, a.render.Projects(projects))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}

// projectID resolves a number or id to the numeric id.
func projectID(ctx context.Context, a *App, ref string) (int, error) {
	res, err := a.Svc.GetProject(ctx, a.company.ID, ref)
	if err != nil {
		return 0, err
	}
	return res.Project.ID, nil
}

func newControllingCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "controlling <project>",
		Short: "Show budget, cost and margin of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := projectID(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			pc, err := a.Svc.GetControlling(cmd.Context(), a.company.ID, id)
			if err != nil {
				return err
			}
			fmt.Fprint(a.Out, a.render.Controlling(pc))
			return nil
		},
	}
}

func newReconcileCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <project>",
		Short: "Recompute a project's cost total from the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := projectID(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			res, err := a.Svc.ReconcileProject(cmd.Context(), a.company.ID, id)
			if err != nil {
				return err
			}
			if res.Repaired {
				fmt.Fprintf(a.Out, "Repaired: %s → %s CHF\n", res.Previous.StringFixed(2), res.Corrected.StringFixed(2))
			} else {
				fmt.Fprintf(a.Out, "Consistent: %s CHF\n", res.Corrected.StringFixed(2))
			}
			return nil
		},
	}
}

func newSeedTimeTypesCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-time-types",
		Short: "Create the default time type catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.Svc.SeedTimeTypes(cmd.Context(), a.company.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "%d time types created.\n", n)
			return nil
		},
	}
}

func newInterpretCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "interpret <text>",
		Short: "Turn a work report into a labor booking, after confirmation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Svc.InterpretBooking(cmd.Context(), a.company.ID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprint(a.Out, a.render.Draft(res))
			if res.Draft.NeedsClarification() {
				return nil
			}
			if !yes && !Confirm(bufio.NewReader(a.In), a.Out, "Book this? (y/n): ") {
				fmt.Fprintln(a.Out, "Cancelled.")
				return nil
			}
			entry, err := a.Svc.BookDraft(cmd.Context(), a.company.ID, nil, *res.Draft)
			if err != nil {
				return err
			}
			fmt.Fprint(a.Out, a.render.TimeEntry(entry))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Book without asking")
	return cmd
}

// Confirm prints prompt and reports whether the answer was yes.
func Confirm(reader *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "j" || answer == "ja"
}
