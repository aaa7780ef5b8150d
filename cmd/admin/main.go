// Command admin provides account administration utilities for Huddle.
package main

func main() {
	Execute()
}
