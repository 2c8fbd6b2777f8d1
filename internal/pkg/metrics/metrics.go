package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ListingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionbot_listings_created_total",
		Help: "Listings created by the seller agent",
	}, []string{"venue"})

	BidsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionbot_bids_total",
		Help: "Buyer agent actions by outcome (bid, buyout, skipped)",
	}, []string{"venue", "outcome"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auctionbot_tick_seconds",
		Help:    "Wall time of one scheduler tick",
		Buckets: prometheus.DefBuckets,
	})

	ObservedItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "auctionbot_observed_items",
		Help: "Live listing count per venue and quality bucket",
	}, []string{"venue", "bucket"})

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auctionbot_http_latency_seconds",
		Help:    "Operator API latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionbot_http_requests_total",
		Help: "Operator API requests by route and status class",
	}, []string{"route", "method", "status"})
)
