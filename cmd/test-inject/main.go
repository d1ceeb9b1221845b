// Command test-inject is a manual test for transcript injection.
// It waits 3 seconds, then types or pastes test text.
// Focus a text editor before the countdown finishes.
//
// Usage:
//
//	go run ./cmd/test-inject [--method type|paste] [--text "..."]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chaz8081/gostt-dictate/internal/inject"
)

func main() {
	method := flag.String("method", inject.MethodType, "inject method: type or paste")
	text := flag.String("text", "Hello from gostt-dictate!", "text to inject")
	flag.Parse()

	inj, err := inject.NewInjector(*method)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Will inject %q using %q method in 3 seconds...\n", *text, inj.Method())
	fmt.Println("Focus a text editor now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	if err := inj.Inject(*text); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("\nDone!")
}
