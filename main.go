package main

import "github.com/theirongolddev/cashbox/cmd"

func main() {
	cmd.Execute()
}
