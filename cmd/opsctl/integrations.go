package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"masgolf/internal/adapters/solapi"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/domain/account"
	"masgolf/internal/domain/calendar"
	"masgolf/internal/domain/channelsms"
)

// dryRunSMS reads through to the real store and drops writes.
type dryRunSMS struct {
	orchestrators.ChannelSMSStore
}

func (dryRunSMS) Save(context.Context, channelsms.Message) error { return nil }

// dryRunAccounts reads through to the real store and drops writes.
type dryRunAccounts struct {
	orchestrators.AccountStore
}

func (dryRunAccounts) Save(context.Context, account.Account) error { return nil }

var solapiGroups []string

var syncSolapiCmd = &cobra.Command{
	Use:   "sync-solapi",
	Short: "Scrape Solapi message groups into channel_sms",
	Long: `Logs into the Solapi console with a headless browser, reads each
group's delivery report and upserts the matching channel_sms row. Groups
are synced one at a time; a failing group does not stop the rest.`,
	Example: `  opsctl sync-solapi --group G4V20250101 --group G4V20250102`,
	Args:    cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		res := orchestrators.MaintenanceResult{Command: "sync-solapi", DryRun: dryRun}
		if env.cfg.Solapi.Username == "" || env.cfg.Solapi.Password == "" {
			return res, fmt.Errorf("solapi.username and solapi.password must be set")
		}
		scraper := solapi.NewConsole(solapi.Config{
			BaseURL:  env.cfg.Solapi.BaseURL,
			Username: env.cfg.Solapi.Username,
			Password: env.cfg.Solapi.Password,
			Headless: env.cfg.Solapi.Headless,
			DebugDir: env.cfg.Solapi.DebugDir,
			Location: env.loc,
		})
		var store orchestrators.ChannelSMSStore = env.sms
		if dryRun {
			store = dryRunSMS{store}
		}
		deps := orchestrators.SyncSolapiDeps{
			Scraper:    scraper,
			Store:      store,
			GenerateID: newID,
			Now:        time.Now,
		}
		for _, id := range splitList(solapiGroups) {
			res.Scanned++
			synced, err := orchestrators.ExecuteSyncSolapiGroup(ctx, id, deps)
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", id, err))
				continue
			}
			verb := "updated"
			if synced.Created {
				verb = "created"
			}
			m := synced.Message
			res.Changed++
			res.Changes = append(res.Changes, fmt.Sprintf("%s %s: %s, %d sent, %d failed, %d recipients",
				id, verb, m.Status, m.SuccessCount, m.FailCount, len(m.RecipientNumbers)))
		}
		return res, nil
	}),
}

var (
	adminName     string
	adminPhone    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin dashboard account",
	Long: `Creates an active admin account that logs in with its phone number.
The phone must not belong to another account.`,
	Example: `  opsctl create-admin --name 관리자 --phone 010-1234-5678 --password '...'`,
	Args:    cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		res := orchestrators.MaintenanceResult{Command: "create-admin", DryRun: dryRun, Scanned: 1}
		var store orchestrators.AccountStore = env.accounts
		if dryRun {
			store = dryRunAccounts{store}
		}
		a, err := orchestrators.ExecuteCreateUser(ctx, orchestrators.CreateUserInput{
			Name:     adminName,
			Phone:    adminPhone,
			Role:     account.RoleAdmin,
			Password: adminPassword,
		}, orchestrators.UserDeps{AccountStore: store, Now: time.Now})
		if err != nil {
			return res, err
		}
		res.Changed = 1
		res.Changes = []string{fmt.Sprintf("admin %s (%s) id=%s", a.Name, a.Phone, a.ID)}
		return res, nil
	}),
}

var seedYear int

var seedCalendarCmd = &cobra.Command{
	Use:   "seed-calendar",
	Short: "Store the annual content plan for a year",
	Long: `Writes the embedded annual hub plan into the content calendar.
Items already stored for the same month, week and title are skipped, so
the command is safe to rerun.`,
	Args: cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		plan, err := calendar.LoadPlan()
		if err != nil {
			return orchestrators.MaintenanceResult{}, fmt.Errorf("load annual plan: %w", err)
		}
		year := seedYear
		if year == 0 {
			year = time.Now().In(env.loc).Year()
		}
		return orchestrators.ExecuteSeedCalendar(ctx, plan, year, env.calendar, dryRun, newID, time.Now)
	}),
}

func init() {
	syncSolapiCmd.Flags().StringArrayVarP(&solapiGroups, "group", "g", nil, "Solapi group id (repeatable or comma separated)")
	_ = syncSolapiCmd.MarkFlagRequired("group")

	createAdminCmd.Flags().StringVar(&adminName, "name", "관리자", "display name")
	createAdminCmd.Flags().StringVar(&adminPhone, "phone", "", "login phone number")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "initial password (at least 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("phone")
	_ = createAdminCmd.MarkFlagRequired("password")

	seedCalendarCmd.Flags().IntVar(&seedYear, "year", 0, "plan year (defaults to the current year in Asia/Seoul)")

	rootCmd.AddCommand(syncSolapiCmd, createAdminCmd, seedCalendarCmd)
}
