package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"cyber-assist-backend/internal/config"
	"cyber-assist-backend/internal/server"
)

func main() {
	cfg := config.Load()
	s, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	defer s.Close()
	addr := ":" + cfg.Port
	fmt.Printf("Cyber AI Assistant server listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, s.Router()))
}
