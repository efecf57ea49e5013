package modkit

import (
	"nhldata/internal/modkit/repokit"
	"nhldata/internal/platform/config"
	"nhldata/internal/platform/logger"
	"nhldata/internal/platform/metrics"
)

// Deps is what a command hands every module it builds
// Metrics is nil safe; a nil PG means the run is not recorded
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      repokit.TxRunner
	Metrics *metrics.Recorder
}

// HasLedger reports whether a ledger pool was opened for this process
func (d Deps) HasLedger() bool { return d.PG != nil }
