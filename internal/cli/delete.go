package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deleteRoot    string
	deleteTag     string
	deleteObjType string
	deleteSeq     uint32
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the item stored under a tag",
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVar(&deleteRoot, "root", "", "root hash (hex)")
	deleteCmd.Flags().StringVar(&deleteTag, "tag", "", "256-bit tag (hex, 32 bytes)")
	deleteCmd.Flags().StringVar(&deleteObjType, "object-type", "account", "flush object type: account, transaction, ledger")
	deleteCmd.Flags().Uint32Var(&deleteSeq, "seq", 1, "ledger sequence to flush under")
	deleteCmd.MarkFlagRequired("root")
	deleteCmd.MarkFlagRequired("tag")
}

func runDelete(cmd *cobra.Command, args []string) error {
	tag, err := parseHash(deleteTag)
	if err != nil {
		return err
	}

	m, cache, err := openMap(deleteRoot)
	if err != nil {
		return err
	}
	defer cache.Close()
	defer m.Close()

	m.ArmDirty()
	removed, err := m.DelItem(tag)
	if err != nil {
		return fmt.Errorf("cli: delete: %w", err)
	}
	if !removed {
		fmt.Println("not found")
		return nil
	}

	return flushAndReport(m, objectTypeFlag(deleteObjType), deleteSeq)
}
