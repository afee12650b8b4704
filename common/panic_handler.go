package common

import (
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// PanicHandler is deferred at the top of a command so a panic is logged with its stack before the process
// exits.
func PanicHandler() {
	r := recover()
	if r == nil {
		return // no panic underway
	}
	log.Errorf("panic occurred in tilestore %v\n%s", r, debug.Stack())
	os.Exit(1)
}
