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
	"net"

	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Name under which the classifier reports in addition to the empty overall service
const HealthServiceName = "sentiment"

/* grpc.health.v1 implementation reporting adapter readiness. */
type HealthService struct {
	healthpb.UnimplementedHealthServer
	adapter *serving.Adapter
}

func NewHealthService(adapter *serving.Adapter) *HealthService {
	return &HealthService{adapter: adapter}
}

func (h *HealthService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if req.GetService() != "" && req.GetService() != HealthServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %s", req.GetService())
	}
	servingStatus := healthpb.HealthCheckResponse_NOT_SERVING
	if h.adapter.Ready() {
		servingStatus = healthpb.HealthCheckResponse_SERVING
	}
	return &healthpb.HealthCheckResponse{Status: servingStatus}, nil
}

type GrpcServer struct {
	server   *grpc.Server
	listener net.Listener
}

func NewGrpcServer(adapter *serving.Adapter) *GrpcServer {
	s := GrpcServer{
		server: grpc.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, NewHealthService(adapter))
	return &s
}

func (g *GrpcServer) Listen(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "Listening gRPC server failed")
	}
	logrus.Info("gRPC server listening on ", listener.Addr().String())
	g.listener = listener
	return nil
}

func (g *GrpcServer) Address() string {
	return g.listener.Addr().String()
}

func (g *GrpcServer) Port() int {
	return g.listener.Addr().(*net.TCPAddr).Port
}

func (g *GrpcServer) Serve() error {
	if g.listener == nil {
		return errors.New("Not listening")
	}
	err := g.server.Serve(g.listener)
	if err == grpc.ErrServerStopped {
		return nil
	}
	return err
}

func (g *GrpcServer) Stop() {
	logrus.Info("gRPC server stopping")
	g.server.Stop()
}
