package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
	"github.com/ginjaninja78/merchant-fee-intake/internal/sample"
	"github.com/ginjaninja78/merchant-fee-intake/pkg/logger"
)

var (
	templateSchema string
	templateOut    string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an example upload file",
	Long: `Writes a CSV file with the schema's header row and two example
transactions. Without --out the file is written to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTemplate(appConfig, templateSchema, templateOut, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVar(&templateSchema, "schema", "", "Required-column schema (default from config)")
	templateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Output file (default stdout)")
}

func runTemplate(cfg *config.Config, schema, outPath string, stdout io.Writer) error {
	cols, err := cfg.Schema(schema)
	if err != nil {
		return err
	}
	data, err := sample.TemplateCSV(cols)
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	logger.Info("Template written", zap.String("path", outPath))
	return nil
}
