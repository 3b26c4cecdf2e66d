package main

import "github.com/iksnae/trompo-cli/cmd"

func main() {
	cmd.Execute()
}
