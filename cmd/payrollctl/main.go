/*
main.go - Offline payroll command line

PURPOSE:
  Runs the payroll pipeline without a server: calculate a month from an
  attendance CSV export, or move attendance between CSV files and a SQLite
  database.

COMMANDS:
  calculate  Aggregate a CSV export and print the payroll result as JSON.
             --xlsx also writes the draft payment as a workbook.
  import     Upsert a CSV export into a SQLite database.
  export     Write an employee's attendance from SQLite as CSV.

EXAMPLES:
  payrollctl calculate --csv march.csv --employee emp-1 --year 2025 \
      --month 3 --base-salary 3000 --config payroll.yaml
  payrollctl import --csv march.csv --db payroll.db
  payrollctl export --db payroll.db --employee emp-1 --from 2025-03-01 --to 2025-03-31

SEE ALSO:
  - attendance/csv.go: CSV columns
  - factory/config.go: Config file format
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/report"
	"github.com/warp/payroll-engine/store/memory"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:          "payrollctl",
		Short:        "Attendance-driven payroll from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	logger := func() *slog.Logger {
		return logging.NewWithWriter(logging.Config{Level: logLevel}, root.ErrOrStderr())
	}

	root.AddCommand(newCalculateCmd(logger), newImportCmd(logger), newExportCmd())
	return root
}

// =============================================================================
// CALCULATE
// =============================================================================

type calculateOptions struct {
	csvPath    string
	employee   string
	year       int
	month      int
	baseSalary string
	configPath string
	xlsxPath   string
}

func newCalculateCmd(logger func() *slog.Logger) *cobra.Command {
	var opts calculateOptions
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate one employee's month from a CSV export",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := calculate(cmd.Context(), opts, logger())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}

			if opts.xlsxPath != "" {
				return writeDraftWorkbook(opts.xlsxPath, res)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.csvPath, "csv", "", "Attendance CSV export")
	f.StringVar(&opts.employee, "employee", "", "Employee ID")
	f.IntVar(&opts.year, "year", 0, "Year")
	f.IntVar(&opts.month, "month", 0, "Month (1-12)")
	f.StringVar(&opts.baseSalary, "base-salary", "", "Monthly base salary")
	f.StringVar(&opts.configPath, "config", "", "Payroll config file (.json, .yaml)")
	f.StringVar(&opts.xlsxPath, "xlsx", "", "Also write the result as an XLSX workbook")
	for _, name := range []string{"csv", "employee", "year", "month", "base-salary"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func calculate(ctx context.Context, opts calculateOptions, logger *slog.Logger) (*payroll.Result, error) {
	salary, err := decimal.NewFromString(opts.baseSalary)
	if err != nil {
		return nil, &generic.InvalidParameterError{Name: "base-salary", Value: opts.baseSalary, Reason: "not a number"}
	}

	cfg := payroll.DefaultConfig()
	if opts.configPath != "" {
		if cfg, err = factory.NewConfigFactory().LoadFile(opts.configPath); err != nil {
			return nil, err
		}
	}

	records, err := readCSVFile(opts.csvPath)
	if err != nil {
		return nil, err
	}
	store := memory.New()
	if err := store.ImportAttendance(ctx, records); err != nil {
		return nil, err
	}

	o := payroll.NewOrchestrator(store, cfg, logger)
	return o.CalculateForMonth(ctx, generic.EmployeeID(opts.employee), opts.year, opts.month, salary)
}

func writeDraftWorkbook(path string, res *payroll.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	payment := payroll.NewDraftPayment(payroll.NewPaymentID(), res, time.Now().UTC())
	if err := report.WriteWorkbook(file, res.Period, []payroll.Payment{payment}, nil); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

func newImportCmd(logger func() *slog.Logger) *cobra.Command {
	var csvPath, dbPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert a CSV export into a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readCSVFile(csvPath)
			if err != nil {
				return err
			}
			store, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ImportAttendance(cmd.Context(), records); err != nil {
				return err
			}
			logger().Info("attendance imported", "records", len(records), "db", dbPath)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", len(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Attendance CSV export")
	cmd.Flags().StringVar(&dbPath, "db", "payroll.db", "SQLite database path")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newExportCmd() *cobra.Command {
	var dbPath, employee, from, to string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an employee's attendance as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := generic.ParseDate(from)
			if err != nil {
				return err
			}
			end, err := generic.ParseDate(to)
			if err != nil {
				return err
			}
			store, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.FetchAttendance(cmd.Context(), generic.EmployeeID(employee), start, end)
			if err != nil {
				return err
			}
			return attendance.WriteCSV(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "payroll.db", "SQLite database path")
	cmd.Flags().StringVar(&employee, "employee", "", "Employee ID")
	cmd.Flags().StringVar(&from, "from", "", "First date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last date, YYYY-MM-DD")
	for _, name := range []string{"employee", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func readCSVFile(path string) ([]attendance.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return attendance.ReadCSV(f)
}
