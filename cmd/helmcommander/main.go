// Package main is the entry point for Helm Commander.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/helm-commander/helmcommander/internal/buildmeta"
	"github.com/helm-commander/helmcommander/pkg/herrors"
	"github.com/helm-commander/helmcommander/pkg/notify"
)

func main() {
	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

//nolint:nonamedreturns // Named return simplifies panic recovery logic.
func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			panicMessage := fmt.Sprintf("panic recovered: %v\n%s", r, debug.Stack())
			notify.WriteMessage(notify.Message{
				Type:    notify.ErrorType,
				Content: panicMessage,
				Writer:  errWriter,
			})

			exitCode = exitInvocationError
		}
	}()

	exitCode = runner(args)

	return exitCode
}

func runWithArgs(args []string) int {
	rootCmd := NewRootCmd(buildmeta.Version, buildmeta.Commit, buildmeta.Date)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errPartialResults) {
		notify.Errorf(rootCmd.ErrOrStderr(), "%v", err)
	}

	return exitCodeFor(err)
}

// Exit codes, per the CLI surface's documented contract: 0 success, 1
// partial (findings or drift modifications present), 2 invocation error,
// 3 access denied or cluster unreachable.
const (
	exitSuccess          = 0
	exitPartial          = 1
	exitInvocationError  = 2
	exitAccessOrNoAccess = 3
)

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errPartialResults):
		return exitPartial
	case herrors.Is(err, herrors.ClusterUnreachable), herrors.Is(err, herrors.AccessDenied):
		return exitAccessOrNoAccess
	case herrors.Is(err, herrors.Timeout):
		return exitPartial
	default:
		return exitInvocationError
	}
}
