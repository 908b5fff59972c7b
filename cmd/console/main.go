package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/novel-engine/internal/config"
	"github.com/jwebster45206/novel-engine/internal/logger"
	"github.com/jwebster45206/novel-engine/internal/saves"
	"github.com/jwebster45206/novel-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the TUI
	log := logger.SetupFileOnly(cfg)

	library := storage.NewScriptLibrary(cfg.DataDir, log)

	store, err := saves.Open(cfg.SaveDB, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open save file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	p := tea.NewProgram(NewConsoleUI(cfg, library, store, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
