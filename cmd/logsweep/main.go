package main

import "logsweep/internal/cli"

func main() {
	cli.Execute()
}
