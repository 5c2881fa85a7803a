package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"bingo-system/services"
)

// NewGenerateCommand builds the offline issuer CLI, registered on the
// PocketBase root command:
//
//	bingo-system generate --count 250 --tickets 5 --amount 5000 --valid-until 2025-11-30
func NewGenerateCommand(issuer *services.IssuerService) *cobra.Command {
	var opts services.BatchOptions

	command := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of signed QR codes with a CSV/XLSX manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := issuer.GenerateBatch(opts)
			if err != nil {
				return err
			}

			log.Printf("Batch %s: %d codes written to %s", result.BatchID, len(result.Rows), result.OutputDir)
			log.Printf("Manifest files: %s and %s", result.CSVPath, result.XLSXPath)
			return nil
		},
	}

	command.Flags().IntVar(&opts.Count, "count", 100, "number of codes to generate")
	command.Flags().IntVar(&opts.Tickets, "tickets", 1, "bingo cards per code")
	command.Flags().IntVar(&opts.Amount, "amount", 0, "prize value per code")
	command.Flags().StringVar(&opts.ValidUntil, "valid-until", "", "expiry date (YYYY-MM-DD or RFC 3339), empty for none")
	command.Flags().StringVar(&opts.LabelPrefix, "prefix", "BINGO", "label prefix for image file names")
	command.Flags().StringVar(&opts.FolderName, "folder", "", "output folder under QR_OUTPUT_DIR (default: batch_<id>)")

	return command
}
