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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Implements the command line interface for serving

// Return Codes
const RC_INVALID_ARGUMENT = 1
const RC_COULD_NOT_LOAD_MODEL = 4
const RC_COULD_NOT_START_SERVER = 7
const RC_PREDICTION_FAILED = 8

func printErrorAndQuit(code int, format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprint(os.Stderr, "\n")
	os.Exit(code)
}

// Applies log level and formatter.
func ConfigureLogging(level string, format string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	switch format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %s", format)
	}
	logrus.SetLevel(parsed)
	return nil
}

// Maps a command failure to a return code.
func exitCode(err error, fallback int) int {
	switch {
	case serving.IsLoadError(err):
		return RC_COULD_NOT_LOAD_MODEL
	case serving.IsInferenceError(err):
		return RC_PREDICTION_FAILED
	default:
		return fallback
	}
}

func Start(args []string, backend serving.Backend) {
	arguments, err := ParseArguments(args)
	if err != nil {
		printErrorAndQuit(RC_INVALID_ARGUMENT, "%s", err.Error())
	}
	if err := ConfigureLogging(arguments.LogLevel, arguments.LogFormat); err != nil {
		printErrorAndQuit(RC_INVALID_ARGUMENT, "Invalid logging arguments: %s", err.Error())
	}

	switch {
	case arguments.Serve != nil:
		err = serve(backend, arguments.Serve)
		if err != nil {
			printErrorAndQuit(exitCode(err, RC_COULD_NOT_START_SERVER), "Serving failed: %s", err.Error())
		}
	case arguments.Analyze != nil:
		err = Analyze(os.Stdout, backend, arguments.Analyze)
		if err != nil {
			printErrorAndQuit(exitCode(err, RC_INVALID_ARGUMENT), "Analyze failed: %s", err.Error())
		}
	case arguments.Predict != nil:
		err = Predict(os.Stdout, os.Stdin, backend, arguments.Predict)
		if err != nil {
			printErrorAndQuit(exitCode(err, RC_INVALID_ARGUMENT), "Prediction failed: %s", err.Error())
		}
	default:
		// help was requested and printed
	}
}

func serve(backend serving.Backend, args *ServeArguments) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Serve(ctx, backend, args)
}
