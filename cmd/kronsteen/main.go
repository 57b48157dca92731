package main

import "github.com/romaklym/kronsteen/cmd"

func main() {
	cmd.Execute()
}
