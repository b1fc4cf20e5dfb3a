package main

import "example.com/exercisetracker/internal/cli"

func main() {
	cli.Execute()
}
