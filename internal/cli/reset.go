package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the index and the ingestion registry",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	removed := 0
	for _, path := range []string{cfg.IndexPath(root), cfg.MetaPath(root), cfg.RegistryPath(root)} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
			logger.Debug("removed index file", zap.String("path", path))
		case os.IsNotExist(err):
		default:
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	if removed == 0 {
		fmt.Println("Nothing to reset.")
		return nil
	}
	fmt.Println("Index deleted.")
	return nil
}
