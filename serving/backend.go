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
package serving

import "encoding/json"

// A Backend deserializes classifier artifacts.
type Backend interface {
	// Load a classifier from an artifact file.
	LoadModel(artifactPath string) (Classifier, error)
}

/* The interface a loaded text classifier must implement. */
type Classifier interface {
	// Class labels, in the order probability vectors are returned.
	Labels() []string
	// One label per input text.
	Predict(texts []string) ([]string, error)
	// One probability vector per input text.
	PredictProba(texts []string) ([][]float64, error)
	// Backend specific information.
	Info() *ModelInfo
	Cleanup()
}

/* Describes a loaded model. */
type ModelInfo struct {
	ArtifactPath string   `json:"artifactPath"`
	Format       string   `json:"format"`
	Name         string   `json:"name,omitempty"`
	Version      string   `json:"version,omitempty"`
	Labels       []string `json:"labels"`
	FeatureCount int      `json:"featureCount"`
}

func (m *ModelInfo) AsJson() string {
	bytes, _ := json.MarshalIndent(m, "", "  ")
	return string(bytes)
}
