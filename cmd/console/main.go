package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL    string
	RoomDbref     string
	CharacterName string
	Timeout       time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080"),
		RoomDbref:     getEnv("ROOM_DBREF", ""),
		CharacterName: getEnv("CHARACTER_NAME", "Visitor"),
		Timeout:       30 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	if cfg.RoomDbref == "" {
		view, err := createRoom(client, cfg.APIBaseURL, "Console Stage")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create room: %v\n", err)
			os.Exit(1)
		}
		cfg.RoomDbref = view.Dbref
	}

	character, err := createCharacter(client, cfg.APIBaseURL, cfg.CharacterName, cfg.RoomDbref)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create character: %v\n", err)
		os.Exit(1)
	}

	// The event stream stays open indefinitely; it gets its own client
	// without a request timeout.
	streamClient := &http.Client{}

	p := tea.NewProgram(NewConsoleUI(cfg, client, streamClient, character),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
