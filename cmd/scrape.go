package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagevault/pagevault/internal/scrape"
)

// newScrapeCmd fetches one URL from the command line and prints the result.
func newScrapeCmd() *cobra.Command {
	var (
		maxChars       int
		extractPrompt  string
		noSave         bool
		mainContent    bool
		timeoutSeconds int
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "scrape URL",
		Short: "Fetch one URL through the fallback chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			defer application.Close()

			req := scrape.Request{
				URL:             args[0],
				MaxChars:        maxChars,
				ExtractPrompt:   extractPrompt,
				SaveResult:      !noSave,
				OnlyMainContent: mainContent,
			}
			if timeoutSeconds > 0 {
				req.Timeout = time.Duration(timeoutSeconds) * time.Second
			}

			result, err := application.Orchestrator.Scrape(cmd.Context(), req)
			if err != nil {
				// The structured result still describes what was attempted.
				printResult(result, asJSON)
				return err
			}
			printResult(result, asJSON)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "truncate returned content at this many characters")
	cmd.Flags().StringVar(&extractPrompt, "extract", "", "natural-language extraction prompt")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the result to the resource catalog")
	cmd.Flags().BoolVar(&mainContent, "main-content", true, "clean down to the main content region")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "overall timeout in seconds for the whole fallback chain")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printResult(result scrape.Result, asJSON bool) {
	if asJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
			return
		}
		fmt.Println(string(payload))
		return
	}
	if !result.Success {
		fmt.Fprintf(os.Stderr, "scrape failed: %s\n", result.Error)
		return
	}
	fmt.Printf("strategy: %s\n", result.StrategyUsed)
	if result.Resources.Raw != "" {
		fmt.Printf("raw:      %s\n", result.Resources.Raw)
	}
	if result.Resources.Cleaned != "" {
		fmt.Printf("cleaned:  %s\n", result.Resources.Cleaned)
	}
	if result.Resources.Extracted != "" {
		fmt.Printf("extracted: %s\n", result.Resources.Extracted)
	}
	fmt.Println()
	fmt.Println(result.Content)
}
