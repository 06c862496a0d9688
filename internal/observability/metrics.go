package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts new posts by category.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddock_posts_created_total",
		Help: "Total number of posts created by category",
	}, []string{"category"})

	// Reactions counts reaction toggles by resulting action (created, updated, removed).
	Reactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddock_reactions_total",
		Help: "Total number of reaction toggles by action",
	}, []string{"action"})

	// PollVotes counts vote attempts by result (accepted, duplicate).
	PollVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddock_poll_votes_total",
		Help: "Total number of poll vote attempts by result",
	}, []string{"result"})

	// FeedSocketConnections is the gauge of open live-feed sockets.
	FeedSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paddock_feed_socket_connections",
		Help: "Number of open live feed WebSocket connections",
	})

	// FeedBackpressureDrops counts feed events dropped for slow sockets.
	FeedBackpressureDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paddock_feed_backpressure_drops_total",
		Help: "Total number of live feed events dropped due to backpressure",
	})
)
