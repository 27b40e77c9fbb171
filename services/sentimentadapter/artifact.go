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
package sentimentadapter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"gopkg.in/yaml.v3"
)

const FormatLinearText = "linear-text/v1"

const NormL2 = "l2"
const NormNone = "none"

const DefaultTokenPattern = `[\p{L}\p{N}_]{2,}`

// Serialized form of a trained linear text classifier.
type Artifact struct {
	Format       string         `json:"format" yaml:"format" msgpack:"format"`
	Name         string         `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Version      string         `json:"version,omitempty" yaml:"version,omitempty" msgpack:"version,omitempty"`
	Labels       []string       `json:"labels" yaml:"labels" msgpack:"labels"`
	Lowercase    *bool          `json:"lowercase,omitempty" yaml:"lowercase,omitempty" msgpack:"lowercase,omitempty"`
	TokenPattern string         `json:"token_pattern,omitempty" yaml:"token_pattern,omitempty" msgpack:"token_pattern,omitempty"`
	NGramRange   []int          `json:"ngram_range,omitempty" yaml:"ngram_range,omitempty" msgpack:"ngram_range,omitempty"`
	Vocabulary   map[string]int `json:"vocabulary" yaml:"vocabulary" msgpack:"vocabulary"`
	IDF          []float64      `json:"idf,omitempty" yaml:"idf,omitempty" msgpack:"idf,omitempty"`
	Norm         string         `json:"norm,omitempty" yaml:"norm,omitempty" msgpack:"norm,omitempty"`
	Coefficients [][]float64    `json:"coefficients" yaml:"coefficients" msgpack:"coefficients"`
	Intercepts   []float64      `json:"intercepts" yaml:"intercepts" msgpack:"intercepts"`
}

type Codec int

const (
	CodecJson Codec = iota
	CodecYaml
	CodecMsgPack
)

// Picks the codec from the file extension, sniffing the content otherwise.
func DetectCodec(path string, content []byte) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return CodecJson
	case ".yaml", ".yml":
		return CodecYaml
	case ".msgpack", ".mp":
		return CodecMsgPack
	}
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return CodecJson
	}
	return CodecMsgPack
}

func DecodeArtifact(codec Codec, content []byte) (*Artifact, error) {
	var artifact Artifact
	var err error
	switch codec {
	case CodecJson:
		err = json.Unmarshal(content, &artifact)
	case CodecYaml:
		err = yaml.Unmarshal(content, &artifact)
	case CodecMsgPack:
		err = msgpack.Unmarshal(content, &artifact)
	default:
		return nil, errors.Errorf("unsupported codec %d", codec)
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not decode artifact")
	}
	return &artifact, nil
}

func EncodeArtifact(codec Codec, artifact *Artifact) ([]byte, error) {
	switch codec {
	case CodecJson:
		return json.Marshal(artifact)
	case CodecYaml:
		return yaml.Marshal(artifact)
	case CodecMsgPack:
		return msgpack.Marshal(artifact)
	default:
		return nil, errors.Errorf("unsupported codec %d", codec)
	}
}

// Reads and decodes an artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "artifact not accessible")
	}
	if info.IsDir() {
		return nil, errors.Errorf("artifact %s is a directory", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read artifact")
	}
	if len(content) == 0 {
		return nil, errors.Errorf("artifact %s is empty", path)
	}
	return DecodeArtifact(DetectCodec(path, content), content)
}

func WriteArtifact(path string, artifact *Artifact) error {
	content, err := EncodeArtifact(DetectCodec(path, nil), artifact)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

func (a *Artifact) lowercase() bool {
	return a.Lowercase == nil || *a.Lowercase
}

func (a *Artifact) ngramRange() (int, int) {
	if len(a.NGramRange) == 0 {
		return 1, 1
	}
	return a.NGramRange[0], a.NGramRange[1]
}

func (a *Artifact) featureCount() int {
	if len(a.Coefficients) == 0 {
		return 0
	}
	return len(a.Coefficients[0])
}

// Checks the artifact for consistency.
func (a *Artifact) Validate() error {
	if a.Format != FormatLinearText {
		return errors.Errorf("unsupported format %q, expected %q", a.Format, FormatLinearText)
	}
	if len(a.Labels) < 2 {
		return errors.Errorf("need at least 2 labels, got %d", len(a.Labels))
	}
	seen := make(map[string]bool, len(a.Labels))
	for _, l := range a.Labels {
		if seen[l] {
			return errors.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}
	if len(a.NGramRange) != 0 {
		if len(a.NGramRange) != 2 {
			return errors.Errorf("ngram_range needs 2 elements, got %d", len(a.NGramRange))
		}
		if a.NGramRange[0] < 1 || a.NGramRange[1] < a.NGramRange[0] {
			return errors.Errorf("invalid ngram_range %v", a.NGramRange)
		}
	}
	switch a.Norm {
	case "", NormL2, NormNone:
	default:
		return errors.Errorf("unsupported norm %q", a.Norm)
	}

	rows := len(a.Coefficients)
	binary := rows == 1 && len(a.Labels) == 2
	if !binary && rows != len(a.Labels) {
		return errors.Errorf("got %d coefficient rows for %d labels", rows, len(a.Labels))
	}
	if len(a.Intercepts) != rows {
		return errors.Errorf("got %d intercepts for %d coefficient rows", len(a.Intercepts), rows)
	}
	features := a.featureCount()
	for i, row := range a.Coefficients {
		if len(row) != features {
			return errors.Errorf("coefficient row %d has %d features, expected %d", i, len(row), features)
		}
	}
	if a.IDF != nil && len(a.IDF) != features {
		return errors.Errorf("got %d idf weights for %d features", len(a.IDF), features)
	}
	for term, index := range a.Vocabulary {
		if index < 0 || index >= features {
			return errors.Errorf("vocabulary term %q has index %d, out of range [0,%d)", term, index, features)
		}
	}
	return nil
}
