package main

import "github.com/vietddude/ocrflow/internal/cli"

func main() {
	cli.Execute()
}
