package commands

import (
	"fmt"
	"io"
	"os"

	"narcheck/pkg/app"
	"narcheck/pkg/checker"
	"narcheck/pkg/exporter"
	"narcheck/pkg/narinfo"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse a local .narinfo document",
	Long: `Parse and validate a single .narinfo document read from a file, or from stdin
when the argument is omitted or "-". Prints the record, or the first error with its line number.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "-"
		if len(args) > 0 {
			name = args[0]
		}

		// 1. 读取输入
		var r io.Reader = cmd.InOrStdin()
		if name != "-" {
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		data, err := io.ReadAll(io.LimitReader(r, checker.MaxDocumentSize+1))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if len(data) > checker.MaxDocumentSize {
			return fmt.Errorf("%s: %w", name, checker.ErrTooLarge)
		}

		// 2. 解析，策略来自配置/flag
		info, err := app.PolicyFromConfig().Parse(string(data))

		// 3. 输出
		return render(cmd.OutOrStdout(), name, info, err)
	},
}

// render 按 --output 输出单条记录或错误
// 解析失败时返回非 nil error，使进程以非 0 退出
func render(w io.Writer, name string, info *narinfo.NarInfo, perr error) error {
	format := exporter.Format(output)

	if perr != nil {
		if format == exporter.FormatText {
			exporter.PrintError(w, name, perr)
		} else if err := exporter.Encode(w, format, exporter.NewErrorReport(perr)); err != nil {
			return err
		}
		return fmt.Errorf("%s: invalid narinfo", name)
	}

	if format == exporter.FormatText {
		return exporter.PrintInfo(w, info)
	}
	return exporter.Encode(w, format, info)
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
