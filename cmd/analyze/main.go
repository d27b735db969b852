// Command analyze runs the spreadsheet pipeline offline: it reads a sales
// register workbook and prints the resulting analysis bundle as JSON, without
// starting the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/honeylavenderwrites/retailytic/internal/analytics"
	"github.com/honeylavenderwrites/retailytic/internal/cache"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
	"github.com/honeylavenderwrites/retailytic/internal/service"
	"github.com/honeylavenderwrites/retailytic/internal/store/memory"
)

func main() {
	var (
		rulesPath string
		outPath   string
		seed      int64
		compact   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <register.xlsx>",
		Short: "Analyze a sales register workbook and print the dashboard bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleset := rules.Default()
			if rulesPath != "" {
				loaded, err := rules.Load(rulesPath)
				if err != nil {
					return fmt.Errorf("load rules: %w", err)
				}
				ruleset = loaded
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read workbook: %w", err)
			}

			engine := analytics.New(ruleset, analytics.NewRandomStock(seed), analytics.NewRandomCohorts(seed))
			svc := service.New(memory.New(zap.NewNop()), cache.NoopBundleCache{}, time.Minute, ruleset, engine, 20, zap.NewNop())

			snap, err := svc.Analyze(context.Background(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			var encoded []byte
			if compact {
				encoded, err = json.Marshal(snap.Bundle)
			} else {
				encoded, err = json.MarshalIndent(snap.Bundle, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("encode bundle: %w", err)
			}
			encoded = append(encoded, '\n')

			if outPath != "" {
				return os.WriteFile(outPath, encoded, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a YAML rules file overriding the built-in normalization tables")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the bundle to a file instead of stdout")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for the synthetic stock and cohort providers")
	cmd.Flags().BoolVar(&compact, "compact", false, "emit compact JSON")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
