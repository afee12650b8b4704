package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	konghcl "github.com/alecthomas/kong-hcl/v2"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/conf"
	"github.com/squareup/tilestore/errors"
	tlog "github.com/squareup/tilestore/log"
)

type arguments struct {
	Config kong.ConfigFlag `help:"Path to config file" type:"existingfile"`
	Log    tlog.Config     `help:"Configuration for the logger" embed:"" prefix:"log-"`
	Scan   conf.Config     `help:"Scan configuration" embed:"" prefix:""`
}

func main() {
	defer common.PanicHandler()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	cfg := arguments{}
	parser, err := kong.New(&cfg, kong.Configuration(konghcl.Loader))
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := parser.Parse(args); err != nil {
		return errors.WithStack(err)
	}
	if err := cfg.Log.Configure(); err != nil {
		return err
	}
	if err := cfg.Scan.Validate(); err != nil {
		return err
	}
	s, err := newScanner(cfg.Scan, out)
	if err != nil {
		return boundaryError(err)
	}
	defer s.close()
	return boundaryError(s.run())
}

// boundaryError passes coded errors through and hides anything else behind a logged reference.
func boundaryError(err error) error {
	if err == nil {
		return nil
	}
	var te errors.TileError
	if errors.As(err, &te) {
		return err
	}
	return common.LogInternalError(err)
}
