// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package middleware carries the HTTP cross-cutting concerns: request IDs,
// Prometheus metrics, CORS and rate limiting.
package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacat_http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metacat_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ItemRecordsPublished counts change feed records by outcome.
	ItemRecordsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacat_item_records_published_total",
			Help: "Item change records published to the bus.",
		},
		[]string{"outcome"},
	)

	// PermissionDecisions counts authorization lookups by outcome.
	PermissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacat_permission_decisions_total",
			Help: "Authorization service decisions.",
		},
		[]string{"outcome"},
	)
)
