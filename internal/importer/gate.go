package importer

import "errors"

// ErrImportBusy is returned when an import is already running.
var ErrImportBusy = errors.New("já existe uma importação em andamento")

// Gate admits one import at a time. A second caller gets ErrImportBusy
// instead of queueing, so the operator sees the conflict immediately.
type Gate struct {
	slot chan struct{}
}

func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

func (g *Gate) Acquire() error {
	select {
	case g.slot <- struct{}{}:
		return nil
	default:
		return ErrImportBusy
	}
}

func (g *Gate) Release() {
	select {
	case <-g.slot:
	default:
	}
}
