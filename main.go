package main

import "github.com/sepiroth887/mirror-voice-handler/cmd"

func main() {
	cmd.Execute()
}
