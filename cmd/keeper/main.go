// Command keeper creates, migrates and inspects the organizer's local store.
package main

import "github.com/mesh-intelligence/keeper/internal/cli"

func main() {
	cli.Execute()
}
