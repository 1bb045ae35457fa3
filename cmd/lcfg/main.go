// Command lcfg checks and inspects libconfig-style configuration files.
//
// Usage:
//
//	lcfg check [--lenient] FILE...
//	lcfg get FILE PATH
//	lcfg dump [--format json|yaml|toml] [--merge deep|shallow|replace] [--lists append|replace|unique] FILE...
//	lcfg watch FILE
//	lcfg man
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lcfg:", err)
		os.Exit(1)
	}
}
