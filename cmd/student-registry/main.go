// student-registry manages student records in memory and serves them over
// HTTP.
//
//	student-registry serve --config=config/local.yaml
//	student-registry check --file=students.csv
//
// Records live as long as the serve process; export them as CSV to keep
// them.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "student-registry",
	Short: "In-memory student record manager",
	Long: `student-registry keeps student records (id, name, age, grade) in memory.

Use "serve" to run the HTTP API and "check" to validate a CSV file
before importing it.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
//	dev (default)  text output at DEBUG
//	staging        JSON output at DEBUG
//	prod           JSON output at INFO
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
