package main

import (
	"os"

	"github.com/complyline/screening/screeningservice"
)

func main() {
	if err := screeningservice.Run(); err != nil {
		os.Exit(1)
	}
}
