package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/muurk/couponwiz/internal/autosave"
	"github.com/muurk/couponwiz/internal/config"
	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/draft"
	"github.com/muurk/couponwiz/internal/logging"
	"github.com/muurk/couponwiz/internal/ui"
	"github.com/muurk/couponwiz/internal/wizard"
	"github.com/muurk/couponwiz/internal/wizard/tui"
)

// Command flags
var (
	outputFormat string
	forceInit    bool
	assumeYes    bool
)

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(configCmd)
}

// startMode selects what the wizard opens with
type startMode int

const (
	startAuto   startMode = iota // Resume a draft if there is one, otherwise new
	startNew                     // New coupon, discarding any draft after confirmation
	startResume                  // Resume the draft, failing without one
	startEdit                    // Open a stored coupon
)

// newCmd starts a fresh coupon
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new coupon",
	Long: `Launch the wizard with an empty coupon.

If a draft from an earlier session exists you are asked before it is
discarded. Use 'couponwiz resume' to continue the draft instead.`,
	Example: `  # Start a new coupon
  couponwiz new

  # Start a new coupon against a scratch database
  couponwiz new --db /tmp/coupons.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, startNew, "")
	},
}

// editCmd opens a stored coupon in the wizard
var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a stored coupon",
	Long: `Open a stored coupon in the wizard.

Every section is checked on open, so problems in any section are shown
straight away. Saving keeps the coupon's id.`,
	Example: `  # Edit a coupon (ids are listed by 'couponwiz list')
  couponwiz edit 3f2a9c1e-5b7d-4e8f-9a0b-1c2d3e4f5a6b`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, startEdit, args[0])
	},
}

// resumeCmd restores the autosaved draft
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the autosaved draft",
	Long: `Continue the coupon from the last autosaved draft.

Sections that were complete stay complete; the wizard opens on the first
section that still needs attention.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, startResume, "")
	},
}

func runWizard(cmd *cobra.Command, mode startMode, id string) error {
	if !isTerminal() {
		return fmt.Errorf("the wizard needs an interactive terminal; use 'couponwiz list' or 'couponwiz show' for scripting")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	drafts := draft.NewFileStore(cfg.Storage.DraftPath)

	machine, err := wizard.NewMachine(wizard.WithCurrency(cfg.Wizard.Currency))
	if err != nil {
		return err
	}
	var opts []wizard.SessionOption
	if cfg.Wizard.AutosaveDelay > 0 {
		opts = append(opts, wizard.WithAutosave(autosave.New(drafts, autosave.WithDelay(cfg.Wizard.AutosaveDelay))))
	}
	session, err := wizard.NewSession(machine, drafts, store, opts...)
	if err != nil {
		return err
	}

	proceed, err := prepareSession(cmd, session, drafts, mode, id)
	if err != nil || !proceed {
		return err
	}

	logging.Info("Wizard started",
		zap.String("active", machine.Active().String()),
		zap.String("coupon_id", machine.Record().ID))

	p := tea.NewProgram(tui.NewAppModel(ctx, session, cfg.Wizard.Currency), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	// Write a pending autosave even when the program failed
	if err := session.Close(context.Background()); err != nil {
		logging.Warn("Failed to write the final draft", zap.Error(err))
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("wizard error: %w", runErr)
	}
	return nil
}

// prepareSession loads the coupon the wizard should open with. It reports
// false when the user cancelled.
func prepareSession(cmd *cobra.Command, session *wizard.Session, drafts *draft.FileStore, mode startMode, id string) (bool, error) {
	ctx := cmd.Context()

	switch mode {
	case startResume:
		ok, err := session.Resume(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("no draft to resume; use 'couponwiz new' to start a coupon")
		}
		return true, nil

	case startAuto:
		if _, err := session.Resume(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	// New and edit replace the draft, ask first
	d, err := drafts.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read draft: %w", err)
	}
	if d != nil {
		if !ui.ConfirmDiscardDraft(cmd.InOrStdin(), cmd.OutOrStdout(), d.Coupon.Name, d.SavedAt) {
			return false, nil
		}
		if err := drafts.Clear(ctx); err != nil {
			return false, err
		}
	}

	if mode == startEdit {
		if err := session.Open(ctx, id); err != nil {
			return false, fmt.Errorf("failed to open coupon %s: %w", id, err)
		}
		return true, nil
	}
	session.Start()
	return true, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// listCmd lists stored coupons
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored coupons",
	Long: `List every coupon in the coupon store, most recently updated first.

Use 'couponwiz show <id>' for the details of one coupon.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	coupons, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list coupons: %w", err)
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	if len(coupons) == 0 {
		printer.PrintWarning("No coupons stored",
			ui.P("Store", cfg.Storage.Backend),
			ui.P("Next", "run 'couponwiz new' to create one"))
		return nil
	}

	rows := make([][]string, 0, len(coupons))
	for _, c := range coupons {
		rows = append(rows, []string{
			c.ID,
			c.Name,
			orDash(c.Code),
			ui.StatusStyle(string(c.Status)).Render(string(c.Status)),
			orDash(wizard.FormatDiscount(c, cfg.Wizard.Currency)),
			c.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	printer.PrintTable([]string{"ID", "Name", "Code", "Status", "Discount", "Updated"}, rows)
	printer.Println(fmt.Sprintf("%d coupon(s)", len(coupons)))
	return nil
}

// showCmd displays one coupon
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored coupon",
	Long: `Display a stored coupon section by section.

The yaml format prints the full record for scripting.`,
	Example: `  # Section summaries
  couponwiz show 3f2a9c1e-5b7d-4e8f-9a0b-1c2d3e4f5a6b

  # Full record
  couponwiz show 3f2a9c1e-5b7d-4e8f-9a0b-1c2d3e4f5a6b --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, yaml)")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	switch outputFormat {
	case "yaml":
		data, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal coupon: %w", err)
		}
		_, _ = cmd.OutOrStdout().Write(data)
	case "detailed":
		printCoupon(ui.NewPrinter(cmd.OutOrStdout()), c, "couponwiz show "+c.ID, cfg.Wizard.Currency,
			ui.P("ID", c.ID),
			ui.P("Status", string(c.Status)),
			ui.P("Updated", c.UpdatedAt.Local().Format(time.RFC1123)))
	default:
		return fmt.Errorf("unknown format %q (expected detailed or yaml)", outputFormat)
	}
	return nil
}

// printCoupon prints a header for c followed by one line per section.
// Sections failing their rules are marked.
func printCoupon(printer *ui.Printer, c *coupon.Coupon, command, currency string, params ...ui.Param) {
	title := c.Name
	if strings.TrimSpace(title) == "" {
		title = "(unnamed coupon)"
	}
	printer.PrintHeader(title, command, params...)

	rules := wizard.DefaultRegistry()
	for _, s := range wizard.SectionOrder {
		marker := ui.StepCompleteStyle.Render(ui.StepMarkerComplete)
		if !rules.Rule(s).Check(c) {
			marker = ui.ErrorTitleStyle.Render(ui.FailureMarker)
		}
		printer.Println(fmt.Sprintf("  %s %s %s",
			marker,
			ui.ResultKeyStyle.Render(s.Title()),
			ui.ResultValueStyle.Render(orDash(wizard.Summarize(s, c, currency)))))
	}
	printer.Newline()
}

// publishCmd publishes a stored coupon without the wizard
var publishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a stored coupon",
	Long: `Publish a coupon saved from the wizard without opening it.

Every section is checked first; a coupon with an incomplete section is
not sent to the store. Publishing a live coupon updates it.`,
	Example: `  # Publish a coupon saved as a draft
  couponwiz publish 3f2a9c1e-5b7d-4e8f-9a0b-1c2d3e4f5a6b`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	id := args[0]

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	machine, err := wizard.NewMachine(wizard.WithCurrency(cfg.Wizard.Currency))
	if err != nil {
		return err
	}
	// No draft store: publishing from here leaves the local draft alone
	session, err := wizard.NewSession(machine, nil, store)
	if err != nil {
		return err
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:     "Publish coupon",
		Command:   "couponwiz publish " + id,
		Params:    []ui.Param{ui.P("Coupon", id), ui.P("Store", cfg.Storage.Backend)},
		StepNames: []string{"Load coupon", "Check sections", "Publish"},
		Troubleshooting: []string{
			"Run 'couponwiz edit " + id + "' to fix incomplete sections",
			"Check the coupon code is not used by another coupon",
			"Run 'couponwiz list' to confirm the coupon id",
		},
		Output: cmd.OutOrStdout(),
	})

	return runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
		onStep(1, ui.StepRunning, "")
		if err := session.Open(ctx, id); err != nil {
			onStep(1, ui.StepFailed, err.Error())
			return nil, err
		}
		onStep(1, ui.StepComplete, machine.Record().Name)

		onStep(2, ui.StepRunning, "")
		if section, incomplete := machine.FirstIncomplete(); incomplete {
			onStep(2, ui.StepFailed, section.Title())
			onStep(3, ui.StepSkipped, "")
			msg := coupon.FormatValidationErrors(machine.Errors(section))
			return nil, fmt.Errorf("%w: %s section is incomplete\n%s", wizard.ErrNotCompletable, section.Title(), msg)
		}
		onStep(2, ui.StepComplete, fmt.Sprintf("%d sections valid", len(machine.Sections())))

		onStep(3, ui.StepRunning, "")
		published, err := session.Publish(ctx)
		if err != nil {
			onStep(3, ui.StepFailed, "")
			return nil, err
		}
		onStep(3, ui.StepComplete, string(published.Status))

		return []ui.Param{
			ui.P("Name", published.Name),
			ui.P("ID", published.ID),
			ui.P("Discount", wizard.FormatDiscount(published, cfg.Wizard.Currency)),
			ui.P("Status", string(published.Status)),
		}, nil
	})
}

// draftCmd groups the draft commands
var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or clear the autosaved draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the autosaved draft",
	Args:  cobra.NoArgs,
	RunE:  runDraftShow,
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the autosaved draft",
	Args:  cobra.NoArgs,
	RunE:  runDraftClear,
}

func init() {
	draftClearCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftClearCmd)
}

func runDraftShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	drafts := draft.NewFileStore(cfg.Storage.DraftPath)

	d, err := drafts.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	if d == nil {
		printer.PrintWarning("No draft saved", ui.P("File", drafts.Path()))
		return nil
	}

	printCoupon(printer, d.Coupon, "couponwiz draft show", cfg.Wizard.Currency,
		ui.P("Saved", d.SavedAt.Local().Format(time.RFC1123)),
		ui.P("File", drafts.Path()))
	printer.Println("Run 'couponwiz resume' to continue editing it.")
	return nil
}

func runDraftClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	drafts := draft.NewFileStore(cfg.Storage.DraftPath)

	d, err := drafts.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}
	printer := ui.NewPrinter(cmd.OutOrStdout())
	if d == nil {
		printer.PrintWarning("No draft saved", ui.P("File", drafts.Path()))
		return nil
	}

	if !assumeYes && !ui.ConfirmDiscardDraft(cmd.InOrStdin(), cmd.OutOrStdout(), d.Coupon.Name, d.SavedAt) {
		return nil
	}
	if err := drafts.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	printer.PrintSuccess("Draft cleared", ui.P("File", drafts.Path()))
	return nil
}

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the couponwiz configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefaultConfig(forceInit)
		if err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Configuration written", ui.P("File", path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after environment variables and flags have
been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
