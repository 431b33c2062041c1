package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vainnor/checkins/collector"
	"github.com/vainnor/checkins/parser"
	"github.com/vainnor/checkins/services/ingest"
	"github.com/vainnor/checkins/services/reports"
	"github.com/vainnor/checkins/types"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.CreateTables(cmd.Context()); err != nil {
				return err
			}
			logger.Info("database schema is up to date")
			return nil
		},
	}
}

func ingestCmd() *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "ingest FILE|DIR...",
		Short: "Store net log files",
		Long: "Parses each file and stores it as one session. Directories are searched for " +
			".txt, .log and .csv files. Every file is stored atomically on its own.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			c := collector.NewCollector(ingest.NewService(store, logger), logger)
			c.FilenameHint = filename
			results, err := c.Collect(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", r.Path, r.Err)
					continue
				}
				fmt.Fprintf(out, "ok   %s: session %d, %s check-ins, dated %s (%s)\n",
					r.Path, r.Result.SessionID, humanize.Comma(int64(r.Result.Inserted)),
					*r.Result.Header.SessionDate, r.Result.DateSource)
				if r.Result.DuplicateOf != nil {
					fmt.Fprintf(out, "     same content as session %d\n", *r.Result.DuplicateOf)
				}
			}
			printImportStats(out, c.GetStats())

			if failed := c.GetStats().Failed; failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "file name used for the date fallback instead of each file's own name")
	return cmd
}

func printImportStats(w io.Writer, s types.ImportStats) {
	fmt.Fprintf(w, "%s files, %s sessions, %s check-ins, %s duplicates, %s failed in %s\n",
		humanize.Comma(int64(s.Files)),
		humanize.Comma(int64(s.Sessions)),
		humanize.Comma(s.Inserted),
		humanize.Comma(int64(s.Duplicates)),
		humanize.Comma(int64(s.Failed)),
		time.Since(s.StartTime).Round(time.Millisecond))
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the parsed header and entries of a log as JSON",
		Args:  cobra.ExactArgs(1),
		// Parsing never needs the database
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), parser.ParseBytes(data))
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate reports",
	}
	cmd.AddCommand(inactiveCmd())
	return cmd
}

func inactiveCmd() *cobra.Command {
	var (
		weeks  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inactive",
		Short: "List operators not heard for a number of weeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := reports.NewService(store).InactiveSince(cmd.Context(), weeks)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, report)
			}
			fmt.Fprintf(out, "Not heard in %d weeks: %d operators\n\n", report.Weeks, len(report.Rows))
			for _, r := range report.Rows {
				fmt.Fprintf(out, "%-10s  first %s  last %s (%s)  %s check-ins\n",
					r.Callsign, r.FirstHeard, r.LastHeard, lastHeardAge(r.LastHeard),
					humanize.Comma(int64(r.TotalCheckins)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&weeks, "weeks", "w", reports.DefaultWeeks, "weeks without a check-in")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func lastHeardAge(date string) string {
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return date
	}
	return humanize.Time(t)
}

func statsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.ArchiveStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, stats)
			}
			fmt.Fprintf(out, "Sessions:         %s\n", humanize.Comma(int64(stats.TotalSessions)))
			fmt.Fprintf(out, "Check-ins:        %s\n", humanize.Comma(int64(stats.TotalCheckins)))
			fmt.Fprintf(out, "Unique callsigns: %s\n", humanize.Comma(int64(stats.UniqueCallsigns)))
			if stats.FirstSession != nil && stats.LastSession != nil {
				fmt.Fprintf(out, "Sessions span:    %s to %s\n", *stats.FirstSession, *stats.LastSession)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration without secrets",
		Run: func(cmd *cobra.Command, args []string) {
			cfg.Print()
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
