/*
 * This file is part of the Mantik Project.
 * Copyright (c) 2020-2021 Mantik UG (Haftungsbeschränkt)
 * Authors: See AUTHORS file
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License version 3.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.
 *
 * Additionally, the following linking exception is granted:
 *
 * If you modify this Program, or any covered work, by linking or
 * combining it with other code, such other code is not for that reason
 * alone subject to any of the requirements of the GNU Affero GPL
 * version 3.
 *
 * You can be released from the requirements of the license by purchasing
 * a commercial license.
 */
package server

import (
	"net/http"
	"time"

	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "sentiment_bridge"

const (
	StatusSuccess       = "success"
	StatusUninitialized = "uninitialized"
	StatusMalformed     = "malformed"
	StatusFailure       = "failure"
)

// Prediction metrics, registered on an own registry per server.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	batchSize   *prometheus.HistogramVec
}

func NewMetrics(adapter *serving.Adapter) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &Metrics{registry: registry}
	m.predictions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by operation and outcome",
		},
		[]string{"operation", "status"},
	)
	m.latency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent in the classifier",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	m.batchSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_size",
			Help:      "Number of texts per successful prediction request",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"operation"},
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "model_ready",
			Help:      "1 if the model is loaded",
		},
		func() float64 {
			if adapter.Ready() {
				return 1
			}
			return 0
		},
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Records a finished classifier call.
func (m *Metrics) Observe(operation string, batchSize int, duration time.Duration, err error) {
	status := statusLabel(err)
	m.predictions.WithLabelValues(operation, status).Inc()
	if err == nil {
		m.latency.WithLabelValues(operation).Observe(duration.Seconds())
		m.batchSize.WithLabelValues(operation).Observe(float64(batchSize))
	}
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, serving.ErrUninitialized):
		return StatusUninitialized
	case errors.Is(err, serving.ErrMalformedInput), errors.Is(err, ErrBadRequest), errors.Is(err, ErrRequestTooLarge):
		return StatusMalformed
	default:
		return StatusFailure
	}
}
