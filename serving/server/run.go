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

	"golang.org/x/sync/errgroup"
)

/*
Serves the listening HTTP server and the optional gRPC server until
one of them stops or ctx is done. Both are stopped on return.
*/
func Run(ctx context.Context, httpServer *Server, grpcServer *GrpcServer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer cancel()
		return httpServer.Serve()
	})
	if grpcServer != nil {
		group.Go(func() error {
			defer cancel()
			return grpcServer.Serve()
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		httpServer.Close()
		if grpcServer != nil {
			grpcServer.Stop()
		}
		return nil
	})
	return group.Wait()
}
