package poller

import "mag3110d/internal/sensors/mag3110"

// Sinks fans a sample out to several sinks in order.
type Sinks []Sink

func (ss Sinks) Report(s mag3110.Sample) {
	for _, sink := range ss {
		if sink != nil {
			sink.Report(s)
		}
	}
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(mag3110.Sample)

func (f SinkFunc) Report(s mag3110.Sample) { f(s) }
