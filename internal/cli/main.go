package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/nimeshabuddhika/helix-alm-go/pkg"
)

// Main runs the CLI and exits nonzero on failure.
func Main() {
	pkg.InitLogger()
	logger := pkg.Logger
	defer func() { _ = logger.Sync() }()

	if err := Root(logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		ec := 1
		var ece ExitCodeErr
		if errors.As(err, &ece) {
			ec = ece.ExitCode()
		}
		_ = logger.Sync()
		os.Exit(ec)
	}
}

type ExitCodeErr interface {
	ExitCode() int
}
