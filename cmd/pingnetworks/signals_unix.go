//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Slade-Bennett/pingnetworks/internal/scan"
)

// notifyPauseSignals toggles the pause gate on SIGUSR1. Paused scans keep
// their in-flight hosts running but admit no new ones.
func notifyPauseSignals(ctrl *scan.Control, logger *zap.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)

	go func() {
		for range ch {
			switch ctrl.State() {
			case scan.StatePaused:
				if ctrl.Resume() {
					logger.Info("scan resumed")
				}
			case scan.StateRunning:
				if ctrl.Pause() {
					logger.Info("scan paused, send SIGUSR1 again to resume")
				}
			}
		}
	}()
}
