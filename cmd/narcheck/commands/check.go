package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"narcheck/pkg/checker"
	"narcheck/pkg/exporter"

	"github.com/spf13/cobra"
)

var ErrCheckFailed = errors.New("cache check failed")

var checkClosure bool

var checkCmd = &cobra.Command{
	Use:   "check [name...]",
	Short: "Validate every narinfo in the configured source",
	Long: `Parse every .narinfo in the configured binary cache concurrently and report the ones that fail.
With --closure, also verify that every reference of every valid record has a narinfo in the cache.
Names may be given to restrict the check to specific documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NC == nil {
			return fmt.Errorf("app not initialized")
		}
		ctx := cmd.Context()

		// 1. 检查文档
		var (
			results []checker.Result
			err     error
		)
		if len(args) > 0 {
			results, err = NC.Checker.Check(ctx, args)
		} else {
			results, err = NC.Checker.CheckAll(ctx)
		}
		if err != nil {
			return err
		}

		// 2. (可选) 引用闭包
		var dangling []checker.Dangling
		if checkClosure {
			dangling, err = NC.Checker.Closure(ctx, results)
			if err != nil {
				return err
			}
		}

		// 3. 输出报告
		report := exporter.NewReport(results, dangling)
		slog.Debug("check finished",
			slog.Int("valid", report.Valid),
			slog.Int("invalid", report.Invalid),
			slog.Int("dangling", len(report.Dangling)),
		)

		w := cmd.OutOrStdout()
		format := exporter.Format(output)
		if format == exporter.FormatText {
			err = exporter.PrintReport(w, report)
		} else {
			err = exporter.Encode(w, format, report)
		}
		if err != nil {
			return err
		}

		if !report.OK() {
			return ErrCheckFailed
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkClosure, "closure", false, "verify that all references resolve to a narinfo")
	rootCmd.AddCommand(checkCmd)
}
