package main

import "github.com/zarathos291x/Character-Engine-Discord/cmd"

func main() {
	cmd.Execute()
}
