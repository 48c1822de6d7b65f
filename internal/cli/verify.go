package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyRoot string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Walk a tree checking every node's hash and invariants",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyRoot, "root", "", "root hash (hex)")
	verifyCmd.MarkFlagRequired("root")
}

func runVerify(cmd *cobra.Command, args []string) error {
	m, cache, err := openMap(verifyRoot)
	if err != nil {
		return err
	}
	defer cache.Close()
	defer m.Close()

	if err := m.Invariants(); err != nil {
		return fmt.Errorf("cli: verify: invariant violated: %w", err)
	}
	if !quiet {
		fmt.Println("ok")
	}
	return nil
}
