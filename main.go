package main

import "github.com/Tiliavir/pronto/cmd"

func main() {
	cmd.Execute()
}
