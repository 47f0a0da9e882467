package cmd

import (
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"task-board.com/task-board/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive board",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
		defer stop()

		board, err := openBoard(cmd, cfg, false)
		if err != nil {
			return err
		}

		// Log lines would tear the alternate screen.
		log.SetOutput(io.Discard)

		if err := tui.Run(ctx, board); err != nil {
			return fmt.Errorf("board: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
