package main

import "eventmanager/cmd/eventapi/cmd"

func main() {
	cmd.Execute()
}
