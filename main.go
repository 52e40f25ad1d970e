package main

import "github.com/frahmantamala/event-scheduler/cmd"

func main() {
	cmd.Execute()
}
