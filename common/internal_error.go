package common

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/errors"
)

// LogInternalError logs err with a random reference and returns a TileError carrying only that reference, so
// callers at the process boundary do not leak engine internals.
func LogInternalError(err error) errors.TileError {
	id, err2 := uuid.NewRandom()
	var errRef string
	if err2 != nil {
		log.Errorf("failed to generate uuid %v", err)
		errRef = ""
	} else {
		errRef = id.String()
	}
	perr := errors.NewInternalError(errRef)
	log.Errorf("internal error occurred with reference %s\n%+v", errRef, err)
	return perr
}
