package main

import (
	"github.com/mcoot/tapduel/internal/cli"
)

func main() {
	cli.Execute()
}
