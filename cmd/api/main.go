package main

import (
	"context"
	"log"

	"github.com/Apurer/orderflow/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("orderflow api: %v", err)
	}
}
