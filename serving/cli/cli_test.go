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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mantik-ai/core/bridge/sentiment/services/sentimentadapter"
	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSample(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "sentiment_model.msgpack")
	require.NoError(t, sentimentadapter.WriteArtifact(path, sentimentadapter.SampleArtifact()))
	return path
}

func TestParseServe(t *testing.T) {
	t.Setenv(serving.ModelPathEnv, "")
	os.Unsetenv(serving.ModelPathEnv)

	args, err := ParseArguments([]string{"bridge", "serve", "--port", "9000", "--grpc-port", "9001"})
	require.NoError(t, err)
	require.NotNil(t, args.Serve)
	assert.Nil(t, args.Analyze)
	assert.Nil(t, args.Predict)
	assert.Equal(t, 9000, args.Serve.Port)
	assert.Equal(t, 9001, args.Serve.GrpcPort)
	assert.Equal(t, serving.DefaultModelPath, args.Serve.ModelPath)
	assert.Equal(t, "info", args.LogLevel)
	assert.Equal(t, "text", args.LogFormat)

	args, err = ParseArguments([]string{"bridge", "serve"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, args.Serve.Port)
	assert.Equal(t, 0, args.Serve.GrpcPort)
}

func TestParseModelPathFromEnv(t *testing.T) {
	t.Setenv(serving.ModelPathEnv, "/models/env.json")
	args, err := ParseArguments([]string{"bridge", "analyze"})
	require.NoError(t, err)
	require.NotNil(t, args.Analyze)
	assert.Equal(t, "/models/env.json", args.Analyze.ModelPath)

	args, err = ParseArguments([]string{"bridge", "analyze", "-m", "/models/flag.json"})
	require.NoError(t, err)
	assert.Equal(t, "/models/flag.json", args.Analyze.ModelPath)
}

func TestParsePredict(t *testing.T) {
	args, err := ParseArguments([]string{
		"bridge", "--log-level", "debug", "--log-format", "json",
		"predict", "--proba", "--no-table", "-m", "model.json", "good", "bad",
	})
	require.NoError(t, err)
	require.NotNil(t, args.Predict)
	assert.Equal(t, "debug", args.LogLevel)
	assert.Equal(t, "json", args.LogFormat)
	assert.Equal(t, &PredictArguments{
		ModelPath: "model.json",
		Proba:     true,
		NoTable:   true,
		Texts:     []string{"good", "bad"},
	}, args.Predict)
}

func TestParseWithoutCommand(t *testing.T) {
	args, err := ParseArguments([]string{"bridge"})
	assert.Equal(t, MissingCommand, err)
	assert.Nil(t, args.Serve)

	_, err = ParseArguments([]string{"bridge", "train"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command train")

	args, err = ParseArguments([]string{"bridge", "--help"})
	require.NoError(t, err)
	assert.Nil(t, args.Serve)
	assert.Nil(t, args.Analyze)
	assert.Nil(t, args.Predict)
}

func TestConfigureLogging(t *testing.T) {
	defer func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}()
	require.NoError(t, ConfigureLogging("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	require.NoError(t, ConfigureLogging("warn", "text"))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)

	assert.Error(t, ConfigureLogging("loud", "text"))
	assert.Error(t, ConfigureLogging("info", "xml"))
}

func TestAnalyze(t *testing.T) {
	path := writeSample(t)
	var out bytes.Buffer
	require.NoError(t, Analyze(&out, &sentimentadapter.LinearBackend{}, &AnalyzeArguments{ModelPath: path}))

	var info serving.ModelInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, path, info.ArtifactPath)
	assert.Equal(t, sentimentadapter.FormatLinearText, info.Format)
	assert.Equal(t, []string{"negative", "positive"}, info.Labels)
}

func TestLoadFailures(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.msgpack")
	backend := &sentimentadapter.LinearBackend{}

	err := Analyze(&bytes.Buffer{}, backend, &AnalyzeArguments{ModelPath: missing})
	assert.True(t, serving.IsLoadError(err))
	assert.Equal(t, RC_COULD_NOT_LOAD_MODEL, exitCode(err, RC_INVALID_ARGUMENT))

	err = Predict(&bytes.Buffer{}, strings.NewReader(""), backend, &PredictArguments{ModelPath: missing, Texts: []string{"good"}})
	assert.True(t, serving.IsLoadError(err))

	err = Serve(context.Background(), backend, &ServeArguments{ModelPath: missing})
	assert.True(t, serving.IsLoadError(err))
	assert.Equal(t, RC_COULD_NOT_LOAD_MODEL, exitCode(err, RC_COULD_NOT_START_SERVER))
}

func TestPredictPlain(t *testing.T) {
	path := writeSample(t)
	var out bytes.Buffer
	err := Predict(&out, nil, &sentimentadapter.LinearBackend{}, &PredictArguments{
		ModelPath: path,
		NoTable:   true,
		Texts:     []string{"good movie", "bad movie"},
	})
	require.NoError(t, err)
	assert.Equal(t, "good movie\tpositive\nbad movie\tnegative\n", out.String())
}

func TestPredictStdin(t *testing.T) {
	path := writeSample(t)
	var out bytes.Buffer
	err := Predict(&out, strings.NewReader("great\n\n  terrible \n"), &sentimentadapter.LinearBackend{}, &PredictArguments{
		ModelPath: path,
		NoTable:   true,
		Proba:     true,
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	columns := strings.Split(lines[0], "\t")
	require.Len(t, columns, 4)
	assert.Equal(t, []string{"great", "positive"}, columns[:2])
	assert.True(t, columns[3] > columns[2], "positive should be more likely: %s", lines[0])

	columns = strings.Split(lines[1], "\t")
	assert.Equal(t, []string{"terrible", "negative"}, columns[:2])
}

func TestPredictTable(t *testing.T) {
	path := writeSample(t)
	var out bytes.Buffer
	err := Predict(&out, nil, &sentimentadapter.LinearBackend{}, &PredictArguments{
		ModelPath: path,
		Proba:     true,
		Texts:     []string{"good", "not good"},
	})
	require.NoError(t, err)
	table := out.String()
	assert.Contains(t, table, "TEXT")
	assert.Contains(t, table, "NEGATIVE")
	assert.Contains(t, table, "not good")
	assert.Contains(t, table, "2 Texts")
}

func TestServeUntilCancelled(t *testing.T) {
	path := writeSample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Serve(ctx, &sentimentadapter.LinearBackend{}, &ServeArguments{ModelPath: path, Port: 0})
	assert.NoError(t, err)
}
