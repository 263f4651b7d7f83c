package main

import (
	"context"
	"time"

	"github.com/dwapor/storefront/internal/app"
)

// @title           Storefront Verification API
// @version         1.0
// @description     Issues and verifies one-time codes for storefront signup and password reset.
// @server          http://localhost:8080
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
