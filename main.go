package main

import "github.com/stacksim/stacksim/cmd"

func main() {
	cmd.Execute()
}
