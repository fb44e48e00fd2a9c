package main

import "github.com/itsmostafa/jsrepl/cmd"

func main() {
	cmd.Execute()
}
