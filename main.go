package main

import "github.com/giftwise/giftwise/cmd"

func main() {
	cmd.Execute()
}
