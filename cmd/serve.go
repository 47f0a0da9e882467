package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	config "task-board.com/task-board/internal/configs"
	httpapi "task-board.com/task-board/internal/http"
	"task-board.com/task-board/internal/remote"
	"task-board.com/task-board/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the board HTTP API and the live timer refresh loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		board, err := openBoard(cmd, cfg, false)
		if err != nil {
			return err
		}

		var remoteStore services.TaskStore
		if cfg.RemoteSyncEnabled {
			redisClient, err := config.NewRedisClient(cfg)
			if err != nil {
				log.Fatalf("failed to create redis client: %v", err)
			}
			defer redisClient.Close()

			remoteStore = remote.NewRedisTaskStore(redisClient, cfg.RedisBoardKey)
			log.Printf("remote sync enabled against %s (%s)", cfg.RedisAddr, cfg.RedisBoardKey)

			if pullOnStart {
				count, err := board.Pull(ctx, remoteStore)
				if err != nil {
					log.Printf("initial pull: %v", err)
				} else {
					log.Printf("pulled %d tasks from remote board", count)
				}
			}
		}

		board.StartUpdates(nil)

		e := echo.New()
		e.HideBanner = true

		handler := httpapi.NewHandler(board, remoteStore)
		httpapi.Register(e, handler, cfg.RateLimit)

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()

		<-ctx.Done()

		// Ends the open timer streams so the server can drain.
		board.StopUpdates()

		echoCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		_ = e.Shutdown(echoCtx)

		log.Println("HTTP server and timer loop shut down gracefully")
		return nil
	},
}

var pullOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&pullOnStart, "pull", false, "Replace the local board with the remote one before serving")
	rootCmd.AddCommand(serveCmd)
}
