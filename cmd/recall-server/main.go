package main

import "github.com/oshokin/recall-lens/cmd/recall-server/cmd"

func main() {
	cmd.Execute()
}
