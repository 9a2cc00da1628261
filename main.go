package main

import "github.com/derickschaefer/timetools/cmd"

func main() {
	cmd.Execute()
}
