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
package test

import (
	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/pkg/errors"
)

/* A classifier with a fixed text to label mapping. */
type TestClassifier struct {
	Mapping map[string]string
	labels  []string
	// If set, all predictions fail with it
	Failure error
	// If set, predictions drop the last result
	Misaligned bool
	Calls      [][]string
	CleanedUp  bool
}

// Maps "good" to "positive" and "bad" to "negative".
func NewSentimentClassifier() *TestClassifier {
	return NewTestClassifier([]string{"negative", "positive"}, map[string]string{
		"good": "positive",
		"bad":  "negative",
	})
}

func NewTestClassifier(labels []string, mapping map[string]string) *TestClassifier {
	return &TestClassifier{
		Mapping: mapping,
		labels:  labels,
	}
}

func (t *TestClassifier) Labels() []string {
	return t.labels
}

func (t *TestClassifier) Predict(texts []string) ([]string, error) {
	t.Calls = append(t.Calls, texts)
	if t.Failure != nil {
		return nil, t.Failure
	}
	result := make([]string, 0, len(texts))
	for _, text := range texts {
		label, ok := t.Mapping[text]
		if !ok {
			return nil, errors.Errorf("unknown text %q", text)
		}
		result = append(result, label)
	}
	if t.Misaligned && len(result) > 0 {
		result = result[:len(result)-1]
	}
	return result, nil
}

// Puts all probability mass on the mapped label.
func (t *TestClassifier) PredictProba(texts []string) ([][]float64, error) {
	labels, err := t.Predict(texts)
	if err != nil {
		return nil, err
	}
	result := make([][]float64, len(labels))
	for i, label := range labels {
		row := make([]float64, len(t.labels))
		for j, l := range t.labels {
			if l == label {
				row[j] = 1.0
			}
		}
		result[i] = row
	}
	return result, nil
}

func (t *TestClassifier) Info() *serving.ModelInfo {
	return &serving.ModelInfo{
		Format:       "test",
		Name:         "test-classifier",
		Labels:       t.labels,
		FeatureCount: len(t.Mapping),
	}
}

func (t *TestClassifier) Cleanup() {
	t.CleanedUp = true
}
