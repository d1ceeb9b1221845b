// Command test-hotkey is a manual test for the global shortcut registrar.
// Run it, then press the accelerator to see events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--accel Alt+Space] [--mode hold|toggle]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaz8081/gostt-dictate/internal/hotkey"
)

func main() {
	accel := flag.String("accel", "Alt+Space", "accelerator to bind")
	mode := flag.String("mode", "hold", "hotkey mode: hold or toggle")
	flag.Parse()

	reg := hotkey.NewRegistrar(*mode, nil)
	if err := reg.Bind(*accel); err != nil {
		fmt.Fprintf(os.Stderr, "bind: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Listening for %s in %q mode...\n", *accel, *mode)
	fmt.Println("Press Ctrl+C to exit.")

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		reg.Stop()
	}()

	// Blocks until stopped
	for ev := range reg.Events() {
		switch ev.Type {
		case hotkey.EventStart:
			fmt.Println(">>> START (recording)")
		case hotkey.EventStop:
			fmt.Println("<<< STOP  (stopped)")
		}
	}
	fmt.Println("Event channel closed.")
}
