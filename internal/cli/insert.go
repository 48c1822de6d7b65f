package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/shamapd/internal/shamap"
)

var (
	insertRoot    string
	insertTag     string
	insertPayload string
	insertTxMeta  bool
	insertTx      bool
	insertObjType string
	insertSeq     uint32
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Insert a new item under a tag",
	RunE:  runInsert,
}

func init() {
	rootCmd.AddCommand(insertCmd)
	insertCmd.Flags().StringVar(&insertRoot, "root", "", "existing root hash (hex); empty starts a new tree")
	insertCmd.Flags().StringVar(&insertTag, "tag", "", "256-bit tag (hex, 32 bytes)")
	insertCmd.Flags().StringVar(&insertPayload, "payload", "", "payload bytes (hex)")
	insertCmd.Flags().BoolVar(&insertTx, "tx", false, "item is a transaction leaf, not account-state")
	insertCmd.Flags().BoolVar(&insertTxMeta, "with-meta", false, "transaction leaf carries metadata (requires --tx)")
	insertCmd.Flags().StringVar(&insertObjType, "object-type", "account", "flush object type: account, transaction, ledger")
	insertCmd.Flags().Uint32Var(&insertSeq, "seq", 1, "ledger sequence to flush under")
	insertCmd.MarkFlagRequired("tag")
}

func runInsert(cmd *cobra.Command, args []string) error {
	tag, err := parseHash(insertTag)
	if err != nil {
		return err
	}
	payload, err := hex.DecodeString(insertPayload)
	if err != nil {
		return fmt.Errorf("cli: invalid --payload hex: %w", err)
	}

	m, cache, err := openMap(insertRoot)
	if err != nil {
		return err
	}
	defer cache.Close()
	defer m.Close()

	m.ArmDirty()
	item := shamap.NewItem(tag, payload)
	if err := m.AddGiveItem(item, insertTx, insertTxMeta); err != nil {
		return fmt.Errorf("cli: insert: %w", err)
	}

	return flushAndReport(m, objectTypeFlag(insertObjType), insertSeq)
}
