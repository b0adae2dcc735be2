package main

import "aibomm/capsule/cmd"

func main() {
	cmd.Execute()
}
