package cmd

import (
	"fmt"
	"os"

	"fintrack/config"
	"fintrack/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	version = "dev"
)

// NewRootCmd 构建命令树，未指定子命令时等同于 serve
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "finance",
		Short:         "Personal finance tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "external config file (optional)")

	serve := serveCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(seedCmd())
	root.AddCommand(versionCmd())
	return root
}

// Execute 执行命令行
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log)
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "finance %s\n", version)
		},
	}
}
