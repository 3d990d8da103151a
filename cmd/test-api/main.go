// Package main is a smoke-test utility that verifies the back office HTTP API
// is reachable and returning valid responses. It issues real HTTP requests to
// the health and version endpoints and prints the status codes and response
// bodies, making it useful for quick post-deployment checks without needing
// external tooling like curl or a full integration test suite.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	base := "http://localhost:8080"
	if len(os.Args) > 1 {
		base = os.Args[1]
	}

	for _, path := range []string{"/health", "/version"} {
		resp, err := http.Get(base + path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			fmt.Printf("Error reading body: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("GET %s: %d\n%s\n", path, resp.StatusCode, string(body))
	}
}
