package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"strengths-service/internal/domain"
	"strengths-service/internal/scoring"
)

// NewScoreCmd scores a responses document offline and prints the report.
func NewScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [file]",
		Short: "Score a responses JSON document (file or stdin) and print the report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 && args[0] != "-" {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read responses: %w", err)
			}

			responses, err := parseResponses(raw)
			if err != nil {
				return err
			}
			if err := domain.ValidateResponses(responses); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(scoring.BuildReport(responses))
		},
	}
}

// parseResponses accepts a bare answer array or a {"responses": [...]} body.
func parseResponses(raw []byte) ([]domain.Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []domain.Answer
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
		return list, nil
	}
	var body struct {
		Responses []domain.Answer `json:"responses"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return body.Responses, nil
}
