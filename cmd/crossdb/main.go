package main

import (
	"context"
	"log"
	"os"
)

func main() {
	app := newApp(nativeOpener, os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
