package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"ollamahub/internal/config"
	"ollamahub/internal/history"
	"ollamahub/internal/hub"
	"ollamahub/internal/session"
	"ollamahub/internal/styles"
	"ollamahub/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.Log.File, "ollamahub")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := log.Default()
	if cfg.Log.Debug {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		logger.Printf("config: base_url=%s model=%s mode=%s stream=%t history=%s",
			cfg.BaseURL, cfg.Model, cfg.Mode, cfg.Stream, cfg.History.Backend)
	}

	store, err := history.Open(cfg.History.Backend, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	client := hub.NewClient(hub.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey})
	sess := session.New(client, store, cfg.SessionMode(), logger)

	styles.InitTheme()
	m := ui.InitialModel(cfg, client, sess, logger)
	defer m.Close()

	p := ui.NewProgram(&m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
