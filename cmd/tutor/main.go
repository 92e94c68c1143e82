package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tutor/internal/config"
	"tutor/internal/logger"
)

var (
	cfgPath string
	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Study tutor for your documents",
	Long: `Reads study material (text, HTML, DOCX or PDF), summarizes it and answers
questions about it in a conversation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		logger.SetVerbose(verbose)
		logger.SetOutput(cmd.ErrOrStderr())
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/tutor/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
}

func loadConfig() error {
	var err error
	var path string
	if cfgPath == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
		path = cfgPath
	}
	if err != nil {
		return err
	}
	logger.Debug("config loaded from %s", path)
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			logger.Warn("config %s", e.Error())
		}
		return errs[0]
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
