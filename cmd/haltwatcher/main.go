package main

import (
	"trade-halt-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
