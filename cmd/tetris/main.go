package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tetris/pkg/game"
	"tetris/pkg/network"
	"tetris/pkg/ui"
)

func main() {
	godotenv.Load()

	roomURL := flag.String("room-url", envOr("TETRIS_ROOM_URL", "http://localhost:8090"),
		"base URL of the room allocation service")
	wsURL := flag.String("ws-url", envOr("TETRIS_WS_URL", "ws://localhost:8090"),
		"base URL of the message channel")
	tick := flag.Duration("tick", game.DefaultTickInterval, "piece fall interval")
	flag.Parse()

	session := game.NewSession(*tick)
	defer session.Close()

	netManager := network.NewManager(session, network.Config{
		RoomURL: *roomURL,
		WSURL:   *wsURL,
	})
	defer netManager.Close()

	gameUI := ui.NewGUI(session, netManager)
	if err := gameUI.Run(); err != nil {
		log.Printf("UI error: %v", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
