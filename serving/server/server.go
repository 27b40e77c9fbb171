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
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const HeaderContentType = "Content-Type"
const HeaderAccept = "Accept"
const HeaderRequestId = "X-Request-Id"
const MimeJson = "application/json"
const MimeText = "text/plain"
const MimeMsgPack = "application/x-msgpack"

// Base HTTP server of the bridge
type Server struct {
	serveMux   *http.ServeMux
	httpServer *http.Server
	ListenPort int
	listener   net.Listener
}

// Listening ourself, so that the port is known when binding to :0

func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.ListenPort = listener.Addr().(*net.TCPAddr).Port
	logrus.Infof("HTTP server listening on %s", listener.Addr().String())
	return nil
}

func (s *Server) Serve() error {
	err := s.httpServer.Serve(s.listener)
	if err == http.ErrServerClosed {
		// this is not an error
		return nil
	}
	return err
}

func (s *Server) Close() {
	s.httpServer.Close()
	// http.Server only closes listeners it already serves
	if s.listener != nil {
		s.listener.Close()
	}
}

// Registers a handler with request id and access logging.
func (s *Server) Handle(route string, handler http.HandlerFunc) {
	s.serveMux.HandleFunc(route, withRequestLog(route, handler))
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		sendError(w, http.StatusNotFound, "Page %s not found", r.URL.Path)
		return
	}
	w.Header().Set(HeaderContentType, MimeText)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("This is a Mantik sentiment bridge\n"))
}

func (s *Server) quitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Method %s not allowed", r.Method)
		return
	}
	logrus.Info("Quit requested")
	w.WriteHeader(http.StatusOK)
	time.AfterFunc(100*time.Millisecond, func() {
		s.Close()
	})
}

func CreateServer(address string) *Server {
	var server Server
	server.serveMux = http.NewServeMux()
	server.Handle("/", server.indexHandler)
	server.Handle("/admin/quit", server.quitHandler)

	server.httpServer = &http.Server{Addr: address, Handler: server.serveMux}
	return &server
}

type requestIdKey struct{}

// Returns the id assigned to the request.
func RequestId(r *http.Request) string {
	id, _ := r.Context().Value(requestIdKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withRequestLog(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestId)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestId, id)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		handler(recorder, r.WithContext(context.WithValue(r.Context(), requestIdKey{}, id)))
		logrus.WithFields(logrus.Fields{
			"requestId": id,
			"route":     route,
			"method":    r.Method,
			"status":    recorder.status,
			"duration":  time.Since(start).String(),
		}).Info("Handled request")
	}
}

// Failure body of the prediction API
type Status struct {
	Code   int    `json:"code" msgpack:"code"`
	Info   string `json:"info" msgpack:"info"`
	Reason string `json:"reason" msgpack:"reason"`
	Status string `json:"status" msgpack:"status"`
}

type StatusResponse struct {
	Status Status `json:"status" msgpack:"status"`
}

/* Send a JSON error message. Returns the code again. */
func sendError(w http.ResponseWriter, code int, format string, a ...interface{}) int {
	return sendErrorWithReason(w, code, http.StatusText(code), format, a...)
}

func sendErrorWithReason(w http.ResponseWriter, code int, reason string, format string, a ...interface{}) int {
	response := StatusResponse{
		Status: Status{
			Code:   code,
			Info:   fmt.Sprintf(format, a...),
			Reason: reason,
			Status: "FAILURE",
		},
	}
	w.Header().Set(HeaderContentType, MimeJson)
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(&response)
	return code
}

func sendJson(w http.ResponseWriter, code int, value interface{}) {
	w.Header().Set(HeaderContentType, MimeJson)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		logrus.Warnf("Could not write response %s", err.Error())
	}
}
