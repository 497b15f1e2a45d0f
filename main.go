package main

import "github.com/RyanBlaney/sonido-nota/cmd"

func main() {
	cmd.Execute()
}
