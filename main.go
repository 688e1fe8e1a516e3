package main

import "github.com/naka-gawa/copilot-velocity/cmd"

func main() {
	cmd.Execute()
}
