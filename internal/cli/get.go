package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	getRoot string
	getTag  string
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Look up the item stored under a tag",
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVar(&getRoot, "root", "", "root hash (hex)")
	getCmd.Flags().StringVar(&getTag, "tag", "", "256-bit tag (hex, 32 bytes)")
	getCmd.MarkFlagRequired("root")
	getCmd.MarkFlagRequired("tag")
}

func runGet(cmd *cobra.Command, args []string) error {
	tag, err := parseHash(getTag)
	if err != nil {
		return err
	}

	m, cache, err := openMap(getRoot)
	if err != nil {
		return err
	}
	defer cache.Close()
	defer m.Close()

	item, err := m.PeekItem(tag)
	if err != nil {
		return fmt.Errorf("cli: get: %w", err)
	}
	if item == nil {
		fmt.Println("not found")
		return nil
	}
	fmt.Printf("tag:     %x\n", item.Tag())
	fmt.Printf("payload: %s\n", hex.EncodeToString(item.Payload()))
	return nil
}
