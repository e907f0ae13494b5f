package main

import "github.com/kamal-hamza/stg-cli/cmd"

func main() {
	cmd.Execute()
}
