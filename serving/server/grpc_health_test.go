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
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/mantik-ai/core/bridge/sentiment/serving/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func startGrpc(t *testing.T, adapter *serving.Adapter) (*GrpcServer, healthpb.HealthClient) {
	grpcServer := NewGrpcServer(adapter)
	require.NoError(t, grpcServer.Listen("127.0.0.1:0"))
	go grpcServer.Serve()

	conn, err := grpc.NewClient(grpcServer.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		grpcServer.Stop()
	})
	return grpcServer, healthpb.NewHealthClient(conn)
}

func TestGrpcHealth(t *testing.T) {
	adapter := serving.NewAdapter(test.NewTestBackend(test.NewSentimentClassifier()))
	grpcServer, client := startGrpc(t, adapter)
	assert.NotZero(t, grpcServer.Port())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	response, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, response.Status)

	require.NoError(t, adapter.Load("model.json"))

	for _, service := range []string{"", HealthServiceName} {
		response, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, response.Status)
	}

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "other"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGrpcServeWithoutListen(t *testing.T) {
	adapter := serving.NewAdapter(test.NewTestBackend(test.NewSentimentClassifier()))
	assert.Error(t, NewGrpcServer(adapter).Serve())
}

func TestRun(t *testing.T) {
	adapter := serving.NewAdapter(test.NewTestBackend(test.NewSentimentClassifier()))
	require.NoError(t, adapter.Load("model.json"))

	httpServer := CreateClassifierServer(adapter, "127.0.0.1:0")
	require.NoError(t, httpServer.Listen())
	grpcServer := NewGrpcServer(adapter)
	require.NoError(t, grpcServer.Listen("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, httpServer.Server, grpcServer)
	}()

	response, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health/ping", httpServer.ListenPort))
	require.NoError(t, err)
	response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	adapter := serving.NewAdapter(test.NewTestBackend(test.NewSentimentClassifier()))
	httpServer := CreateClassifierServer(adapter, "127.0.0.1:0")
	require.NoError(t, httpServer.Listen())

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), httpServer.Server, nil)
	}()

	response, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/admin/quit", httpServer.ListenPort), "", nil)
	require.NoError(t, err)
	response.Body.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
