package main

import "github.com/dennis-nst/no-lose/cmd"

func main() {
	cmd.Execute()
}
