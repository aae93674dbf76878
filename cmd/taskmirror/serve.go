package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskmirror/internal/api"
	"taskmirror/internal/config"
	"taskmirror/internal/dashboard"
	"taskmirror/internal/logging"
	syncpkg "taskmirror/internal/sync"
	taskpkg "taskmirror/internal/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook, REST, and dashboard server",
	Long: `Start the taskmirror server.

Endpoints:
  POST /todo/sync   Todoist webhook ingestion
  /tasks, /tasklists   JSON REST surface over the local store
  /ws               dashboard WebSocket (sync activity broadcast)
  /health           liveness probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := buildApp()
		if err != nil {
			return err
		}
		defer closeApp()

		serverLog := logging.New("server")
		if a.cfg.LogPath != "" {
			serverLog = logging.NewRotating(a.cfg.LogPath, "server")
		}

		dash := dashboard.NewServer(logging.New("dashboard"))
		dash.Start()
		defer dash.Stop()
		activity := dashboard.NewHandler(dash, nil)

		orch := syncpkg.NewWithConfig(a.remote, a.store, &syncpkg.Config{
			Logger:   logging.New("sync"),
			Notifier: activity,
		})

		tasks := taskpkg.NewWithConfig(a.store, a.remote, &taskpkg.Config{
			Logger:   logging.New("task"),
			Notifier: activity,
		})

		server := api.NewServer(&api.Config{
			Port:   a.cfg.ListenPort,
			Logger: serverLog,
		}, tasks, orch, dash)

		if err := server.Start(); err != nil {
			return err
		}

		// Changes to the remote credential or listen port need a process
		// restart; surface edits instead of silently ignoring them.
		a.loader.Watch(func(cfg *config.Config) {
			serverLog.Printf("Config file changed; restart to apply")
		}, func(err error) {
			serverLog.Printf("Config reload failed: %v", err)
		})

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		fmt.Fprintln(os.Stderr, "Shutting down...")
		return server.Stop()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
