package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contract-engine/internal/api/handler/dto"
	"contract-engine/internal/domain/contract"

	"github.com/spf13/cobra"
)

func newSummaryCommand(run backendRunner) *cobra.Command {
	var documentNumber, issueDate, state string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the portfolio summary as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(documentNumber, issueDate, state)
			if err != nil {
				return err
			}

			return run(cmd, func(ctx context.Context, b Backend) error {
				summary, err := b.Summarize(ctx, filter)
				if err != nil {
					return fmt.Errorf("summarizing contracts: %w", err)
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if summary == nil {
					return enc.Encode([]dto.SummaryResponse{})
				}
				return enc.Encode(dto.NewSummaryResponse(summary))
			})
		},
	}

	cmd.Flags().StringVar(&documentNumber, "cpf", "", "borrower document number")
	cmd.Flags().StringVar(&issueDate, "data-emissao", "", "issue date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&state, "estado", "", "borrower address state, case-sensitive")

	return cmd
}

func buildFilter(documentNumber, issueDate, state string) (contract.Filter, error) {
	var f contract.Filter
	if documentNumber != "" {
		f.DocumentNumber = &documentNumber
	}
	if v := strings.TrimSpace(issueDate); v != "" {
		d, err := dto.ParseDate("data-emissao", v)
		if err != nil {
			return f, err
		}
		f.IssueDate = &d
	}
	if state != "" {
		f.State = &state
	}
	return f, nil
}
