package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"spades-game/internal/database"
	"spades-game/internal/server"
)

func main() {
	log.Println("Starting Spades server...")

	db := database.New()
	defer db.Close()

	hub := server.NewHub(&db, server.HubConfig{
		TurnTimeout: envDuration("SPADES_TURN_TIMEOUT", 30*time.Second),
		TargetScore: envInt("SPADES_TARGET_SCORE", 200),
	})
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})

	fs := http.FileServer(http.Dir("web/static"))
	http.Handle("/", fs)

	server.HandleRoutes(&db)

	addr := os.Getenv("SPADES_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Fatal(http.ListenAndServe(addr, nil))
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}
