package main

import "github.com/lexcodex/toolgate/app/cmd"

func main() {
	cmd.Execute()
}
