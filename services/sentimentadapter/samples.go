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

// A small binary sentiment model, positive for "good", negative for "bad".
func SampleArtifact() *Artifact {
	return &Artifact{
		Format:     FormatLinearText,
		Name:       "sample-sentiment",
		Version:    "1",
		Labels:     []string{"negative", "positive"},
		NGramRange: []int{1, 2},
		Vocabulary: map[string]int{
			"good":     0,
			"bad":      1,
			"great":    2,
			"terrible": 3,
			"not good": 4,
		},
		Norm:         NormL2,
		Coefficients: [][]float64{{2.0, -2.0, 3.0, -3.0, -4.5}},
		Intercepts:   []float64{0.0},
	}
}

// A three class model using softmax and idf weights.
func SampleMulticlassArtifact() *Artifact {
	lowercase := false
	return &Artifact{
		Format:    FormatLinearText,
		Name:      "sample-multiclass",
		Labels:    []string{"negative", "neutral", "positive"},
		Lowercase: &lowercase,
		Vocabulary: map[string]int{
			"bad":  0,
			"okay": 1,
			"good": 2,
		},
		IDF: []float64{1.5, 1.0, 1.5},
		Coefficients: [][]float64{
			{3, 0, -3},
			{0, 3, 0},
			{-3, 0, 3},
		},
		Intercepts: []float64{0, 0.5, 0},
	}
}
