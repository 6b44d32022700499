/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the service,
tracking HTTP requests, traced operations, image resolution, remote size
probes, the size cache and document rendering.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Feed traced operations into Prometheus
	tracer := tracing.New("gitbook", logger, tracing.LogSink(logger), tracing.MetricsSink(metrics))

	// Time probes
	timer := monitoring.NewTimer(metrics)
	size, err := fetch(ctx, url)
	timer.StopProbe(err)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
