// Public domain.

package main

import "github.com/soniakeys/gwmoc/internal/mocprog"

func main() {
	mocprog.Main()
}
