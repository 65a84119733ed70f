package main

import "expenses/internal/cli"

func main() {
	cli.Execute()
}
