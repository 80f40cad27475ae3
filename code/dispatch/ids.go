package dispatch

import "sync/atomic"

var nextConsumerID atomic.Uint64

// NextConsumerID hands out a process-wide unique identifier, for
// embedders who would rather generate consumer IDs than assign them by
// hand. Grounded on the source design's get_unique_id(), an atomic
// counter handed out once per registered consumer.
func NextConsumerID() uint64 {
	return nextConsumerID.Add(1)
}
