package main

import "github.com/datafog/datafog-go/cmd/datafog"

func main() { datafog.Execute() }
