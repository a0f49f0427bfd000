// Package main provides the crossquote CLI for level crossing quote computation.
package main

func main() {
	Execute()
}
