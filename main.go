package main

import "github.com/CosmoTheDev/vulnbyhost/cmd"

func main() {
	cmd.Execute()
}
