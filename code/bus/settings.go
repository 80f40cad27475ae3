package bus

import (
	"fmt"

	"github.com/Voltaic314/eventbus/code/audit"
	"github.com/Voltaic314/eventbus/code/config"
)

// NewBusFromSettings builds a Bus from a JSON-loadable config.BusConfig
// (see config.LoadBusConfig), translating its queue_kind/ring_size fields
// into a QueueFactory and, if cfg.Audit.Enabled, opening an audit.Sink at
// cfg.Audit.Path before constructing the Bus.
func NewBusFromSettings(cfg config.BusConfig) (*Bus, error) {
	var queues QueueFactory
	switch cfg.QueueKind {
	case "", "mutex":
		queues = MutexQueueFactory()
	case "ring":
		queues = RingQueueFactory(cfg.RingSize)
	default:
		return nil, fmt.Errorf("eventbus: unknown queue_kind %q", cfg.QueueKind)
	}

	var sink *audit.Sink
	if cfg.Audit.Enabled {
		s, err := audit.NewSink(cfg.Audit.Path, cfg.Audit.BatchSize, cfg.Audit.FlushIntervalDuration())
		if err != nil {
			return nil, fmt.Errorf("eventbus: opening audit sink: %w", err)
		}
		sink = s
	}

	return NewBus(Config{
		NumQueues:  cfg.NumQueues,
		NumWorkers: cfg.NumWorkers,
		Queues:     queues,
		Audit:      sink,
	})
}
