package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"masgolf/internal/adapters/sheet"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/domain/customer"
)

var fixPhonesCmd = &cobra.Command{
	Use:   "fix-phones",
	Short: "Normalize stored phone numbers to 010-XXXX-XXXX",
	Long: `Rewrites every booking, contact, customer and quiz phone into the
canonical hyphenated form. Rows whose digits are not a valid Korean number
are reported and left alone.`,
	Args: cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		return orchestrators.ExecuteFixPhones(ctx, env.maintenance(), dryRun)
	}),
}

var cleanEmailsCmd = &cobra.Command{
	Use:   "clean-emails",
	Short: "Clear booking and customer emails that fail validation",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		return orchestrators.ExecuteCleanEmails(ctx, env.maintenance(), false, dryRun)
	}),
}

var purgeTestEmailsCmd = &cobra.Command{
	Use:   "purge-test-emails",
	Short: "Clear placeholder and test addresses",
	Long: `Clears only known QA placeholder addresses on bookings and
customers. Valid real addresses are untouched.`,
	Args: cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		return orchestrators.ExecuteCleanEmails(ctx, env.maintenance(), true, dryRun)
	}),
}

var dedupeBookingsCmd = &cobra.Command{
	Use:   "dedupe-bookings",
	Short: "Remove duplicate bookings for the same phone, date and time",
	Long: `Groups bookings by normalized phone, date and time and keeps the
newest row of each group. The others are deleted.`,
	Args: cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		return orchestrators.ExecuteDedupeBookings(ctx, env.maintenance(), dryRun)
	}),
}

var testMarkers []string

var deleteTestDataCmd = &cobra.Command{
	Use:   "delete-test-data",
	Short: "Delete rows whose name carries a test marker",
	Example: `  opsctl delete-test-data --dry-run
  opsctl delete-test-data --marker 테스트 --marker qa`,
	Args: cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		return orchestrators.ExecuteDeleteTestData(ctx, env.maintenance(), splitList(testMarkers), dryRun)
	}),
}

var linkCustomersCmd = &cobra.Command{
	Use:   "link-customers",
	Short: "Create or attach customer profiles for unlinked bookings",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		return orchestrators.ExecuteLinkCustomers(ctx, env.maintenance(), dryRun, newID, time.Now)
	}),
}

var (
	mergeSource string
	mergeTarget string
)

var mergeCustomersCmd = &cobra.Command{
	Use:   "merge-customers",
	Short: "Fold one customer profile into another",
	Long: `Moves the source customer's bookings to the target, unions their
previous phones, sums visit counts and deletes the source.`,
	Example: `  opsctl merge-customers --source 3f2a... --target 9c41...`,
	Args:    cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		res := orchestrators.MaintenanceResult{Command: "merge-customers", DryRun: dryRun, Scanned: 2}
		if dryRun {
			if mergeSource == mergeTarget {
				return res, customer.ErrSameCustomer
			}
			src, err := env.customers.GetByID(ctx, mergeSource)
			if err != nil {
				return res, fmt.Errorf("source %s: %w", mergeSource, err)
			}
			tgt, err := env.customers.GetByID(ctx, mergeTarget)
			if err != nil {
				return res, fmt.Errorf("target %s: %w", mergeTarget, err)
			}
			preview := tgt
			if err := preview.Absorb(src); err != nil {
				return res, err
			}
			res.Changed = 1
			res.Changes = []string{fmt.Sprintf("merge %s (%s) into %s (%s), %d visits after merge",
				src.Name, src.Phone, tgt.Name, tgt.Phone, preview.VisitCount)}
			return res, nil
		}
		merged, err := orchestrators.ExecuteMergeCustomers(ctx, mergeSource, mergeTarget, env.customers, time.Now)
		if err != nil {
			return res, err
		}
		res.Changed = 1
		res.Changes = []string{fmt.Sprintf("merged %s into %s, %d booking(s) moved, %d visits",
			mergeSource, merged.Target.ID, merged.MovedBookings, merged.Target.VisitCount)}
		return res, nil
	}),
}

var wixFile string

var importWixCmd = &cobra.Command{
	Use:   "import-wix",
	Short: "Import bookings from a Wix export (CSV or XLSX)",
	Long: `Reads a Wix bookings export and creates one booking per row.
Rows that duplicate an existing phone, date and time are skipped.`,
	Example: `  opsctl import-wix --file wix-bookings.xlsx --dry-run`,
	Args:    cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, env *opsEnv, _ []string) (orchestrators.MaintenanceResult, error) {
		data, err := os.ReadFile(wixFile)
		if err != nil {
			return orchestrators.MaintenanceResult{}, err
		}
		rows, err := sheet.ReadRows(filepath.Base(wixFile), data)
		if err != nil {
			return orchestrators.MaintenanceResult{}, fmt.Errorf("read %s: %w", wixFile, err)
		}
		return orchestrators.ExecuteImportWix(ctx, rows, dryRun, orchestrators.ImportWixDeps{
			BookingStore: env.bookings,
			GenerateID:   newID,
			Now:          time.Now,
		})
	}),
}

func init() {
	deleteTestDataCmd.Flags().StringArrayVar(&testMarkers, "marker", nil,
		fmt.Sprintf("name fragment marking test rows (default %v)", orchestrators.DefaultTestMarkers))

	mergeCustomersCmd.Flags().StringVar(&mergeSource, "source", "", "customer id to fold away")
	mergeCustomersCmd.Flags().StringVar(&mergeTarget, "target", "", "customer id to keep")
	_ = mergeCustomersCmd.MarkFlagRequired("source")
	_ = mergeCustomersCmd.MarkFlagRequired("target")

	importWixCmd.Flags().StringVarP(&wixFile, "file", "f", "", "path to the .csv or .xlsx export")
	_ = importWixCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(fixPhonesCmd, cleanEmailsCmd, purgeTestEmailsCmd, dedupeBookingsCmd,
		deleteTestDataCmd, linkCustomersCmd, mergeCustomersCmd, importWixCmd)
}
