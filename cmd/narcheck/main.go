package main

import (
	"log"

	"narcheck/cmd/narcheck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatal(err)
	}
}
