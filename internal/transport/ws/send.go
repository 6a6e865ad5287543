package ws

import "tilecraft.ai/internal/metrics"

// send queues b on out without blocking. When out is full the oldest queued
// message is dropped to make room.
func send(out chan []byte, b []byte) {
	if out == nil {
		return
	}
	for i := 0; i < 2; i++ {
		select {
		case out <- b:
			return
		default:
		}
		select {
		case <-out:
			metrics.DroppedMessages.Inc()
		default:
		}
	}
	metrics.DroppedMessages.Inc()
}
