// Command corpcode downloads DART's company code list and looks companies up
// in the downloaded CORPCODE.xml.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"valuegrade/internal/config"
	"valuegrade/internal/pkg/corp"
	"valuegrade/internal/pkg/dart"

	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	corpPath string
	limit    int
)

var rootCmd = &cobra.Command{
	Use:   "corpcode",
	Short: "Manage the DART corp code list",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}
		if corpPath == "" {
			corpPath = cfg.CorpCodePath
		}
		return nil
	},
	SilenceUsage: true,
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download corpCode.xml once and write the extracted CORPCODE.xml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.DartAPIKeyEnv); err != nil {
			return err
		}

		client := dart.New(cfg.DartAPIKey)
		if err := client.DownloadCorpCodeFile(corpPath); err != nil {
			return fmt.Errorf("failed to download corp codes: %w", err)
		}

		companies, err := dart.LoadCorpCodeFile(corpPath)
		if err != nil {
			return fmt.Errorf("downloaded file is not readable: %w", err)
		}

		log.Printf("Wrote %d companies to %s", len(companies), corpPath)
		return nil
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Resolve a company name to its corp_code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		companies, err := dart.LoadCorpCodeFile(corpPath)
		if err != nil {
			return err
		}

		dir := corp.NewDirectory(companies)
		code, err := dir.Resolve(args[0])

		var ambiguous *corp.AmbiguousError
		if errors.As(err, &ambiguous) {
			for _, c := range dir.Search(args[0], limit) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.CorpCode, c.StockCode, c.CorpName)
			}
			return err
		}
		if err != nil {
			return err
		}

		c, _ := dir.Company(code)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", code, c.StockCode, c.CorpName)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&corpPath, "file", "f", "", "path of CORPCODE.xml (default $CORPCODE_PATH)")
	lookupCmd.Flags().IntVarP(&limit, "limit", "n", 20, "candidates to print for an ambiguous name")

	rootCmd.AddCommand(downloadCmd, lookupCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
