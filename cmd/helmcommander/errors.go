package main

import "errors"

// errPartialResults signals a successful invocation whose output still
// warrants a non-zero exit: doctor findings present, or drift modifications
// detected. Never printed as an error, it only steers the exit code.
var errPartialResults = errors.New("partial results")
