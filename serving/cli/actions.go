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
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/mantik-ai/core/bridge/sentiment/serving/server"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func loadAdapter(backend serving.Backend, modelPath string) (*serving.Adapter, error) {
	adapter := serving.NewAdapter(backend)
	if err := adapter.Load(modelPath); err != nil {
		return nil, err
	}
	return adapter, nil
}

// Loads the model and serves until ctx is done or the server quits.
func Serve(ctx context.Context, backend serving.Backend, args *ServeArguments) error {
	adapter, err := loadAdapter(backend, args.ModelPath)
	if err != nil {
		return err
	}
	defer adapter.Cleanup()

	httpServer := server.CreateClassifierServer(adapter, fmt.Sprintf(":%d", args.Port))
	if err := httpServer.Listen(); err != nil {
		return errors.Wrap(err, "could not start HTTP server")
	}

	var grpcServer *server.GrpcServer
	if args.GrpcPort > 0 {
		grpcServer = server.NewGrpcServer(adapter)
		if err := grpcServer.Listen(fmt.Sprintf(":%d", args.GrpcPort)); err != nil {
			httpServer.Close()
			return err
		}
	}
	return server.Run(ctx, httpServer.Server, grpcServer)
}

// Loads the model and writes its info as JSON.
func Analyze(w io.Writer, backend serving.Backend, args *AnalyzeArguments) error {
	adapter, err := loadAdapter(backend, args.ModelPath)
	if err != nil {
		return err
	}
	defer adapter.Cleanup()
	_, err = fmt.Fprintln(w, adapter.Info().AsJson())
	return err
}

// Classifies the given texts, or stdin lines if there are none.
func Predict(w io.Writer, stdin io.Reader, backend serving.Backend, args *PredictArguments) error {
	texts := args.Texts
	if len(texts) == 0 {
		var err error
		texts, err = readLines(stdin)
		if err != nil {
			return err
		}
	}

	adapter, err := loadAdapter(backend, args.ModelPath)
	if err != nil {
		return err
	}
	defer adapter.Cleanup()

	predictions, err := adapter.Predict(texts, nil)
	if err != nil {
		return err
	}
	var probabilities [][]float64
	if args.Proba {
		probabilities, err = adapter.PredictProba(texts, nil)
		if err != nil {
			return err
		}
	}
	logrus.Debugf("Classified %d texts", len(texts))

	header := []string{"Text", "Label"}
	if args.Proba {
		header = append(header, adapter.Labels()...)
	}
	rows := make([][]string, len(texts))
	for i, text := range texts {
		row := []string{text, predictions[i]}
		if args.Proba {
			for _, p := range probabilities[i] {
				row = append(row, formatProbability(p))
			}
		}
		rows[i] = row
	}

	if args.NoTable {
		for _, row := range rows {
			if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
				return err
			}
		}
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetCaption(true, fmt.Sprintf("%d Texts", len(rows)))
	table.SetBorder(false)
	table.AppendBulk(rows)
	table.Render()
	return nil
}

// Non-empty lines of r, trimmed.
func readLines(r io.Reader) ([]string, error) {
	var result []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 0 {
			result = append(result, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read input")
	}
	return result, nil
}

func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}
