package main

import "github.com/oshokin/recall-lens/cmd/recall-client/cmd"

func main() {
	cmd.Execute()
}
