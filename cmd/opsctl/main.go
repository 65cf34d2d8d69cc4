// Command opsctl runs one-off data repairs and imports against the masgolf
// database. Every command accepts --dry-run and prints a summary.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"masgolf/internal/adapters/storage"
	accountStore "masgolf/internal/adapters/storage/account"
	bookingStore "masgolf/internal/adapters/storage/booking"
	calendarStore "masgolf/internal/adapters/storage/calendar"
	channelSMSStore "masgolf/internal/adapters/storage/channelsms"
	contactStore "masgolf/internal/adapters/storage/contact"
	customerStore "masgolf/internal/adapters/storage/customer"
	quizStore "masgolf/internal/adapters/storage/quiz"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/config"
)

var (
	configPath string
	dryRun     bool
	outputFmt  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "opsctl",
	Short: "masgolf maintenance commands",
	Long: `opsctl repairs and imports masgolf data: phone and email
normalization, duplicate cleanup, customer linking, Wix imports, Solapi
delivery syncs and the annual content plan.

Run any command with --dry-run first; it reports what would change
without writing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFmt {
		case "text", "json", "yaml":
		default:
			return fmt.Errorf("unknown --output %q (text, json or yaml)", outputFmt)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (defaults to MASGOLF_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report changes without writing")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "summary format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging regardless of log.level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// opsEnv is the opened database and the stores the commands share.
type opsEnv struct {
	cfg       config.Config
	db        *sql.DB
	loc       *time.Location
	accounts  *accountStore.SQLStore
	bookings  *bookingStore.SQLStore
	contacts  *contactStore.SQLStore
	customers *customerStore.SQLStore
	quiz      *quizStore.SQLStore
	calendar  *calendarStore.SQLStore
	sms       *channelSMSStore.SQLStore
}

// openEnv loads config and opens the migrated database.
// POST: caller closes env.db
func openEnv(ctx context.Context) (*opsEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))

	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	db, dialect, err := storage.Open(ctx, storage.OpenOptions{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &opsEnv{
		cfg:       cfg,
		db:        db,
		loc:       loc,
		accounts:  accountStore.NewSQLStore(db, dialect),
		bookings:  bookingStore.NewSQLStore(db, dialect),
		contacts:  contactStore.NewSQLStore(db, dialect),
		customers: customerStore.NewSQLStore(db, dialect),
		quiz:      quizStore.NewSQLStore(db, dialect),
		calendar:  calendarStore.NewSQLStore(db, dialect),
		sms:       channelSMSStore.NewSQLStore(db, dialect),
	}, nil
}

func (e *opsEnv) maintenance() orchestrators.MaintenanceStores {
	return orchestrators.MaintenanceStores{
		Bookings:  e.bookings,
		Contacts:  e.contacts,
		Customers: e.customers,
		Quiz:      e.quiz,
	}
}

// withEnv wraps a command body that needs the database.
func withEnv(run func(ctx context.Context, env *opsEnv, args []string) (orchestrators.MaintenanceResult, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.db.Close()
		res, err := run(cmd.Context(), env, args)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	}
}

// newLogger writes to stderr so stdout carries only the summary.
func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newID() string { return uuid.New().String() }

// printResult writes the summary in the selected format. Failed rows turn
// into a non-zero exit after the summary is written.
func printResult(w io.Writer, res orchestrators.MaintenanceResult) error {
	var err error
	switch outputFmt {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(res); err == nil {
			err = enc.Close()
		}
	default:
		writeText(w, res)
	}
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d row(s) failed", res.Failed)
	}
	return nil
}

func writeText(w io.Writer, res orchestrators.MaintenanceResult) {
	mode := ""
	if res.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "%s%s: scanned=%d changed=%d skipped=%d failed=%d\n",
		res.Command, mode, res.Scanned, res.Changed, res.Skipped, res.Failed)
	for _, c := range res.Changes {
		fmt.Fprintf(w, "  + %s\n", c)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
}

// splitList accepts repeated and comma separated flag values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
