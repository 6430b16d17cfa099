package main

import (
	"os"

	"github.com/portcullis-admin/portcullis/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
