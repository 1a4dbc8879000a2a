package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("(╯°□°）╯︵ ┻━┻ error on startup")
		os.Exit(1)
	}
}
