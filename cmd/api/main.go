// Package main provides the entry point for the dietcoach API server
package main

func main() {
	Execute()
}
