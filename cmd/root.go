// Package cmd wires the Cobra CLI for the pagevault service.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/app"
	"github.com/pagevault/pagevault/pkg/config"
)

var cfgFile string

// newApp is the application factory. It's a variable so tests can replace it
// with a mock factory.
var newApp = func() (*app.App, error) {
	return app.New(viper.GetViper())
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagevault",
		Short: "Resilient web scraping with learned fetch strategies.",
		Long: `pagevault fetches arbitrary web pages despite bot detection and
JS-rendering requirements by trying fetch backends in cost order, remembering
which backend worked per site, and cataloging raw, cleaned, and extracted
renditions of everything it retrieves.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// .env carries provider API keys in development.
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
			}
			bootstrap := zap.NewExample()
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
			}
			config.InitConfig(bootstrap)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ., /etc/pagevault, $HOME/.pagevault)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScrapeCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
