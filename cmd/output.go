package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.uber.org/multierr"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	keyColor   = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
)

func title(format string, a ...interface{}) {
	titleColor.Printf(format+"\n", a...)
}

func field(key, value string) {
	fmt.Printf("  %s %s\n", keyColor.Sprint(key+":"), value)
}

func warn(format string, a ...interface{}) {
	warnColor.Printf("  "+format+"\n", a...)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

// reportErrors prints every per-file failure. They are already logged, so
// the command still succeeds.
func reportErrors(err error) error {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return nil
	}

	errColor.Printf("  %d file(s) failed:\n", len(errs))
	for _, e := range errs {
		fmt.Println("   -", e)
	}
	return nil
}
