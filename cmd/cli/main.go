package main

import "stackit/cmd/cli/command"

func main() {
	command.Execute()
}
