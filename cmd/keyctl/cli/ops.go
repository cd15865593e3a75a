package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ---------- check ----------

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <key>",
		Short: "Report whether a key value is unused",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			ok, err := s.console.CheckKey(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("check key: %w", err)
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is available\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already in use\n", args[0])
			return nil
		},
	}
}

// ---------- validate ----------

func newValidateCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate <key>",
		Short: "Check a key the way the playground does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.playground.Validate(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("validate key: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, res)
			}
			fmt.Fprintf(out, "%s: %s\n", res.Status, res.Data.Message)
			if res.Valid() {
				fmt.Fprintf(out, "  Name: %s\n  Type: %s\n", res.Data.KeyName, res.Data.KeyType)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- reconcile ----------

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Deactivate every active key whose expiry date has been reached",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.console.Reconcile(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checked %d keys as of %s: %d expired, %d deactivated, %d failed\n",
				report.Checked, report.Today, len(report.Expired), len(report.Deactivated), len(report.Failed))
			for _, id := range report.Failed {
				fmt.Fprintf(out, "  failed: %s\n", id)
			}
			return nil
		},
	}
}
