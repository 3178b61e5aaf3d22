//go:build !unix

package main

import (
	"go.uber.org/zap"

	"github.com/Slade-Bennett/pingnetworks/internal/scan"
)

// notifyPauseSignals is a no-op where SIGUSR1 does not exist.
func notifyPauseSignals(_ *scan.Control, _ *zap.Logger) {}
