package commands

import (
	"fmt"
	"os"

	"narcheck/pkg/app"
	"narcheck/pkg/config"
	"narcheck/pkg/exporter"
	"narcheck/pkg/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	output  string
	// 全局应用实例，供子命令使用
	NC *app.App
)

var rootCmd = &cobra.Command{
	Use:           "narcheck",
	Short:         "narcheck: validate binary cache .narinfo metadata",
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := exporter.ParseFormat(output); err != nil {
			return err
		}

		// parse 只处理本地输入，不需要来源
		if cmd.Name() == "parse" {
			return nil
		}

		var err error
		NC, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize narcheck: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if NC != nil {
			return NC.Close()
		}
		return nil
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// 1. 全局参数
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.narcheck/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", string(exporter.FormatText), "output format: text|json|cbor")

	// 2. 绑定到 Viper 的参数
	// 既可以在 yaml 里写，也可以用 flag 覆盖
	flags := rootCmd.PersistentFlags()
	flags.String("source-type", "", "document source: disk|s3")
	flags.String("source-path", "", "binary cache directory (disk source)")
	flags.Bool("deriver-optional", false, "accept documents without a Deriver line")
	flags.Bool("additive-references", false, "concatenate repeated References lines")
	flags.Int("workers", 0, "number of documents checked concurrently")
	flags.String("log-level", "", "log level: debug|info|warn|error")

	bindings := map[string]string{
		"source.type":               "source-type",
		"source.path":               "source-path",
		"parse.deriver_optional":    "deriver-optional",
		"parse.additive_references": "additive-references",
		"check.workers":             "workers",
		"log.level":                 "log-level",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Println("Failed to bind flag:", err)
			os.Exit(1)
		}
	}
}

// initConfig 读取配置文件和环境变量，并初始化日志
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}
	if err := logging.Setup(viper.GetString("log.level"), viper.GetString("log.format"), os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}
}
