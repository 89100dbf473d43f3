package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "splitledger-cli",
		Short: "SplitLedger CLI tool",
		Long:  `A command line interface for interacting with the SplitLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the SplitLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Group commands
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Group operations",
	}

	groupCmd.AddCommand(balancesCmd())
	groupCmd.AddCommand(planCmd())
	groupCmd.AddCommand(expensesCmd())
	groupCmd.AddCommand(consistencyCmd())
	rootCmd.AddCommand(groupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balances <group-id>",
		Short: "Show net balances for a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/v1/groups/" + args[0] + "/balances")
			if err != nil {
				return err
			}

			var result struct {
				Currency string `json:"currency"`
				AsOfSeq  int64  `json:"as_of_seq"`
				Net      []struct {
					MemberID string `json:"member_id"`
					Net      struct {
						Amount string `json:"amount"`
					} `json:"net"`
				} `json:"net"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Printf("Balances (%s, as of seq %d)\n", result.Currency, result.AsOfSeq)
			for _, nb := range result.Net {
				fmt.Printf("  %-30s %s\n", truncate(nb.MemberID, 30), nb.Net.Amount)
			}
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <group-id>",
		Short: "Show the suggested settlement plan for a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/v1/groups/" + args[0] + "/settlement-plan")
			if err != nil {
				return err
			}

			var result struct {
				Transfers []struct {
					PayerID string `json:"payer_id"`
					PayeeID string `json:"payee_id"`
					Amount  struct {
						Amount   string `json:"amount"`
						Currency string `json:"currency"`
					} `json:"amount"`
				} `json:"transfers"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if len(result.Transfers) == 0 {
				fmt.Println("Nothing to settle")
				return nil
			}

			for _, tr := range result.Transfers {
				fmt.Printf("  %s -> %s: %s %s\n", truncate(tr.PayerID, 26), truncate(tr.PayeeID, 26), tr.Amount.Amount, tr.Amount.Currency)
			}
			return nil
		},
	}
}

func expensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expenses <group-id>",
		Short: "List a group's expenses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/v1/groups/" + args[0] + "/expenses/")
			if err != nil {
				return err
			}

			var expenses []map[string]any
			if err := json.Unmarshal(body, &expenses); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printJSON(expenses)
			return nil
		},
	}
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency <group-id>",
		Short: "Check a group's ledger consistency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/v1/groups/" + args[0] + "/consistency")
			if err != nil {
				return err
			}

			var result map[string]any
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if consistent, ok := result["consistent"].(bool); ok && consistent {
				fmt.Println("Consistency check PASSED")
			} else {
				fmt.Println("Consistency check FAILED")
			}
			printJSON(result)
			return nil
		},
	}
}

func apiGet(path string) ([]byte, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render JSON: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
