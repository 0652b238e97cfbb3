package main

import "classroom-sync/cmd"

func main() {
	cmd.Execute()
}
