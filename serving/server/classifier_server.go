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
	"github.com/sirupsen/logrus"
)

// Serves an adapter with the prediction API.
type ClassifierServer struct {
	*Server
	adapter *serving.Adapter
	Metrics *Metrics
}

func CreateClassifierServer(adapter *serving.Adapter, address string) *ClassifierServer {
	s := ClassifierServer{
		Server:  CreateServer(address),
		adapter: adapter,
		Metrics: NewMetrics(adapter),
	}
	s.Handle("/predict", s.predictHandler)
	s.Handle("/api/v1.0/predictions", s.predictHandler)
	s.Handle("/predict_proba", s.predictProbaHandler)
	s.Handle("/health/ping", s.pingHandler)
	s.Handle("/health/status", s.healthStatusHandler)
	s.Handle("/type", s.typeHandler)
	s.serveMux.Handle("/metrics", s.Metrics.Handler())
	return &s
}

func (s *ClassifierServer) predictHandler(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decode(w, r, serving.OpPredict)
	if !ok {
		return
	}
	start := time.Now()
	labels, err := s.adapter.Predict(input.Inputs, input.FeatureNames)
	s.Metrics.Observe(serving.OpPredict, len(labels), time.Since(start), err)
	if err != nil {
		sendInferenceError(w, err)
		return
	}
	s.respond(w, r, &PredictionResponse{
		Data: ResponseData{Names: []string{"label"}, Ndarray: labels},
		Meta: ResponseMeta{RequestId: RequestId(r)},
	})
}

func (s *ClassifierServer) predictProbaHandler(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decode(w, r, serving.OpPredictProba)
	if !ok {
		return
	}
	start := time.Now()
	probabilities, err := s.adapter.PredictProba(input.Inputs, input.FeatureNames)
	s.Metrics.Observe(serving.OpPredictProba, len(probabilities), time.Since(start), err)
	if err != nil {
		sendInferenceError(w, err)
		return
	}
	s.respond(w, r, &PredictionResponse{
		Data: ResponseData{Names: s.adapter.Labels(), Ndarray: probabilities},
		Meta: ResponseMeta{RequestId: RequestId(r)},
	})
}

func (s *ClassifierServer) decode(w http.ResponseWriter, r *http.Request, op string) (*PredictionInput, bool) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Only POST supported")
		return nil, false
	}
	// Not ready wins over any body
	if !s.adapter.Ready() {
		s.Metrics.Observe(op, 0, 0, serving.ErrUninitialized)
		sendInferenceError(w, serving.ErrUninitialized)
		return nil, false
	}
	input, err := DecodeInput(r)
	if err != nil {
		logrus.Warnf("Error decoding %s request %s: %s", op, RequestId(r), err.Error())
		s.Metrics.Observe(op, 0, 0, err)
		if errors.Is(err, ErrRequestTooLarge) {
			sendErrorWithReason(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "%s", err.Error())
		} else {
			sendErrorWithReason(w, http.StatusBadRequest, "MALFORMED_INPUT", "%s", err.Error())
		}
		return nil, false
	}
	return input, true
}

func (s *ClassifierServer) respond(w http.ResponseWriter, r *http.Request, response *PredictionResponse) {
	if err := EncodeOutput(w, r, response); err != nil {
		logrus.Errorf("Error serializing response %s", err.Error())
		sendError(w, http.StatusInternalServerError, "Could not serialize response")
	}
}

// Maps adapter errors to HTTP codes.
func inferenceStatusCode(err error) (int, string) {
	switch {
	case errors.Is(err, serving.ErrUninitialized):
		return http.StatusServiceUnavailable, "MODEL_NOT_LOADED"
	case errors.Is(err, serving.ErrMalformedInput):
		return http.StatusBadRequest, "MALFORMED_INPUT"
	default:
		return http.StatusInternalServerError, "MICROSERVICE_INTERNAL_ERROR"
	}
}

func sendInferenceError(w http.ResponseWriter, err error) {
	code, reason := inferenceStatusCode(err)
	sendErrorWithReason(w, code, reason, "%s", err.Error())
}

func (s *ClassifierServer) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(HeaderContentType, MimeText)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method %s not allowed", r.Method)
		return false
	}
	return true
}

func (s *ClassifierServer) healthStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	health := s.adapter.HealthStatus()
	code := http.StatusOK
	if !health.Ready {
		code = http.StatusServiceUnavailable
	}
	sendJson(w, code, health)
}

func (s *ClassifierServer) typeHandler(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	info := s.adapter.Info()
	if info == nil {
		sendErrorWithReason(w, http.StatusServiceUnavailable, "MODEL_NOT_LOADED", "%s", serving.ErrUninitialized.Error())
		return
	}
	sendJson(w, http.StatusOK, info)
}
