package main

import (
	"debfoundry/internal/debfoundry"
)

func main() {
	debfoundry.Main()
}
