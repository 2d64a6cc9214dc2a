package mockapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockbackend_requests_total",
		Help: "Envelope requests handled, by operation and outcome.",
	}, []string{"operation", "outcome"})

	streamsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockbackend_streams_total",
		Help: "Reply streams opened.",
	})

	streamChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockbackend_stream_chunks_total",
		Help: "Chunk events written across all reply streams.",
	})
)
