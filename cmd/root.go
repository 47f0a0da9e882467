package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	config "task-board.com/task-board/internal/configs"
	"task-board.com/task-board/internal/lifecycle"
	repository "task-board.com/task-board/internal/repositories"
	"task-board.com/task-board/internal/services"
	"task-board.com/task-board/internal/timer"
)

var rootCmd = &cobra.Command{
	Use:           "task-board",
	Short:         "Task board with per-task time tracking",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}
	return config.Load()
}

// openBoard builds a board over the local database and loads it. A read-only
// board never writes to the database.
func openBoard(cmd *cobra.Command, cfg config.Config, readOnly bool) (*services.BoardService, error) {
	db, err := config.OpenDatabase(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	clk := clock.New()
	timers := timer.NewRegistry(clk)
	board := services.NewBoardService(
		repository.NewTaskRepository(db),
		lifecycle.NewEngine(timers, clk),
		timer.NewUpdateLoop(clk, cfg.TimerTick),
		clk,
	)

	load := board.Load
	if readOnly {
		load = board.Refresh
	}
	if err := load(cmd.Context()); err != nil {
		return nil, err
	}
	return board, nil
}
