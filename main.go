package main

import "github.com/adityanavgire01/walkie-talkie/cmd"

func main() {
	cmd.Execute()
}
