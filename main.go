package main

import (
	"log"

	"github.com/groundedcv/groundedcv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
