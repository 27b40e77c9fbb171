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
	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var MissingCommand = errors.New("missing command")

const DefaultPort = 8502

type ServeArguments struct {
	ModelPath string
	Port      int
	// gRPC health service is only started for ports > 0
	GrpcPort int
}

type AnalyzeArguments struct {
	ModelPath string
}

type PredictArguments struct {
	ModelPath string
	Proba     bool
	NoTable   bool
	// If empty, texts are read line by line from stdin
	Texts []string
}

type Arguments struct {
	LogLevel  string
	LogFormat string
	Serve     *ServeArguments
	Analyze   *AnalyzeArguments
	Predict   *PredictArguments
}

func modelPathFlag() cli.Flag {
	return cli.StringFlag{
		Name:   "model-path,m",
		Usage:  "Path of the model artifact",
		EnvVar: serving.ModelPathEnv,
		Value:  serving.DefaultModelPath,
	}
}

// Parse arguments. Help and error messages are already printed.
func ParseArguments(argv []string) (*Arguments, error) {
	var args = Arguments{}
	app := cli.NewApp()
	app.Name = "sentiment-bridge"
	app.Usage = "Serves a text classifier"
	app.Description = "Mantik sentiment classification bridge"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)"},
		cli.StringFlag{Name: "log-format", Value: "text", Usage: "Log format (text or json)"},
	}

	app.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "Load the model and serve the prediction API",
			Flags: []cli.Flag{
				modelPathFlag(),
				cli.IntFlag{Name: "port,p", Value: DefaultPort, Usage: "HTTP port"},
				cli.IntFlag{Name: "grpc-port", Value: 0, Usage: "gRPC health port, 0 disables it"},
			},
			Action: func(c *cli.Context) error {
				args.Serve = &ServeArguments{
					ModelPath: c.String("model-path"),
					Port:      c.Int("port"),
					GrpcPort:  c.Int("grpc-port"),
				}
				return nil
			},
		},
		{
			Name:  "analyze",
			Usage: "Load the model and print its info",
			Flags: []cli.Flag{
				modelPathFlag(),
			},
			Action: func(c *cli.Context) error {
				args.Analyze = &AnalyzeArguments{
					ModelPath: c.String("model-path"),
				}
				return nil
			},
		},
		{
			Name:      "predict",
			Usage:     "Classify texts from the command line or stdin",
			ArgsUsage: "[text...]",
			Flags: []cli.Flag{
				modelPathFlag(),
				cli.BoolFlag{Name: "proba", Usage: "Also print class probabilities"},
				cli.BoolFlag{Name: "no-table", Usage: "Render pure text instead of table"},
			},
			Action: func(c *cli.Context) error {
				args.Predict = &PredictArguments{
					ModelPath: c.String("model-path"),
					Proba:     c.Bool("proba"),
					NoTable:   c.Bool("no-table"),
					Texts:     c.Args(),
				}
				return nil
			},
		},
	}
	// Runs without a known command
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		if c.NArg() > 0 {
			return errors.Errorf("unknown command %s", c.Args().First())
		}
		return MissingCommand
	}
	app.Before = func(c *cli.Context) error {
		args.LogLevel = c.GlobalString("log-level")
		args.LogFormat = c.GlobalString("log-format")
		return nil
	}
	err := app.Run(argv)
	return &args, err
}
