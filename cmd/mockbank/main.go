package main

import (
	"log"
	"net/http"
	"os"

	"github.com/dmelnik/openbanking/internal/mockbank"
)

func main() {
	port := os.Getenv("MOCK_BANK_PORT")
	if port == "" {
		port = "9090"
	}

	log.Printf("Mock bank listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mockbank.Router()); err != nil {
		log.Fatal(err)
	}
}
