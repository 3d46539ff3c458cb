package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"tetris/pkg/server"
)

func main() {
	godotenv.Load()

	addr := flag.String("addr", envOr("TETRIS_SERVER_ADDR", ":8090"), "listen address")
	flag.Parse()

	srv := server.New()

	log.Printf("Room server starting on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, srv.Handler()))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
