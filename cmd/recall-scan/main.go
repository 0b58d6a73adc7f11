package main

import "github.com/oshokin/recall-lens/cmd/recall-scan/cmd"

func main() {
	cmd.Execute()
}
