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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryModel(t *testing.T) {
	model, err := NewLinearModel(SampleArtifact())
	require.NoError(t, err)
	assert.Equal(t, []string{"negative", "positive"}, model.Labels())

	labels, err := model.Predict([]string{"good", "bad", "This is GREAT", "not good", "terrible, just terrible"})
	require.NoError(t, err)
	assert.Equal(t, []string{"positive", "negative", "positive", "negative", "negative"}, labels)

	probabilities, err := model.PredictProba([]string{"good", ""})
	require.NoError(t, err)
	require.Len(t, probabilities, 2)
	expected := 1.0 / (1.0 + math.Exp(-2.0))
	assert.InDelta(t, 1-expected, probabilities[0][0], 1e-9)
	assert.InDelta(t, expected, probabilities[0][1], 1e-9)
	// unknown words fall back to the intercept, ties pick the first label
	assert.InDelta(t, 0.5, probabilities[1][0], 1e-9)
	assert.InDelta(t, 0.5, probabilities[1][1], 1e-9)

	labels, err = model.Predict([]string{""})
	require.NoError(t, err)
	assert.Equal(t, []string{"negative"}, labels)
}

func TestBinaryModelNGrams(t *testing.T) {
	model, err := NewLinearModel(SampleArtifact())
	require.NoError(t, err)

	features := model.vectorize("not good")
	require.Len(t, features, 2)
	assert.InDelta(t, 1/math.Sqrt2, features[0], 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, features[4], 1e-9)
}

func TestMulticlassModel(t *testing.T) {
	model, err := NewLinearModel(SampleMulticlassArtifact())
	require.NoError(t, err)

	labels, err := model.Predict([]string{"good", "okay", "bad", "Good", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"positive", "neutral", "negative", "neutral", "neutral"}, labels)

	probabilities, err := model.PredictProba([]string{"good bad okay"})
	require.NoError(t, err)
	require.Len(t, probabilities, 1)
	require.Len(t, probabilities[0], 3)
	var sum float64
	for _, p := range probabilities[0] {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEmptyBatch(t *testing.T) {
	model, err := NewLinearModel(SampleArtifact())
	require.NoError(t, err)

	labels, err := model.Predict([]string{})
	assert.NoError(t, err)
	assert.Empty(t, labels)

	probabilities, err := model.PredictProba(nil)
	assert.NoError(t, err)
	assert.Empty(t, probabilities)
}

func TestNormNone(t *testing.T) {
	artifact := SampleArtifact()
	artifact.Norm = NormNone
	model, err := NewLinearModel(artifact)
	require.NoError(t, err)

	features := model.vectorize("good good")
	assert.Equal(t, map[int]float64{0: 2}, features)
}

func TestInvalidArtifacts(t *testing.T) {
	cases := map[string]func(a *Artifact){
		"format":          func(a *Artifact) { a.Format = "pickle" },
		"single label":    func(a *Artifact) { a.Labels = []string{"positive"} },
		"duplicate label": func(a *Artifact) { a.Labels = []string{"x", "x"} },
		"rows":            func(a *Artifact) { a.Coefficients = [][]float64{{1, 2, 3, 4, 5}, {1, 2, 3, 4, 5}, {1, 2, 3, 4, 5}} },
		"intercepts":      func(a *Artifact) { a.Intercepts = []float64{} },
		"ragged":          func(a *Artifact) { a.Coefficients = [][]float64{{1, 2}} },
		"idf":             func(a *Artifact) { a.IDF = []float64{1} },
		"vocabulary":      func(a *Artifact) { a.Vocabulary["awful"] = 17 },
		"ngram":           func(a *Artifact) { a.NGramRange = []int{2, 1} },
		"ngram size":      func(a *Artifact) { a.NGramRange = []int{1} },
		"norm":            func(a *Artifact) { a.Norm = "l1" },
		"pattern":         func(a *Artifact) { a.TokenPattern = "([" },
	}
	for name, modify := range cases {
		t.Run(name, func(t *testing.T) {
			artifact := SampleArtifact()
			modify(artifact)
			_, err := NewLinearModel(artifact)
			assert.Error(t, err)
		})
	}
}

func TestSoftmaxIsStable(t *testing.T) {
	result := softmax([]float64{1000, 1000})
	assert.InDelta(t, 0.5, result[0], 1e-9)
	assert.InDelta(t, 0.5, result[1], 1e-9)
}
