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
	"regexp"
	"strings"

	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/pkg/errors"
)

// A loaded linear bag of words classifier
type LinearModel struct {
	artifact     *Artifact
	artifactPath string
	tokenPattern *regexp.Regexp
	minN, maxN   int
}

func NewLinearModel(artifact *Artifact) (*LinearModel, error) {
	if err := artifact.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid artifact")
	}
	pattern := artifact.TokenPattern
	if pattern == "" {
		pattern = DefaultTokenPattern
	}
	tokenPattern, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid token pattern %q", pattern)
	}
	minN, maxN := artifact.ngramRange()
	return &LinearModel{
		artifact:     artifact,
		tokenPattern: tokenPattern,
		minN:         minN,
		maxN:         maxN,
	}, nil
}

func (l *LinearModel) Labels() []string {
	return l.artifact.Labels
}

func (l *LinearModel) Predict(texts []string) ([]string, error) {
	probabilities, err := l.PredictProba(texts)
	if err != nil {
		return nil, err
	}
	result := make([]string, len(probabilities))
	for i, p := range probabilities {
		result[i] = l.artifact.Labels[argMax(p)]
	}
	return result, nil
}

func (l *LinearModel) PredictProba(texts []string) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i, text := range texts {
		result[i] = l.probabilities(l.scores(l.vectorize(text)))
	}
	return result, nil
}

func (l *LinearModel) Info() *serving.ModelInfo {
	return &serving.ModelInfo{
		ArtifactPath: l.artifactPath,
		Format:       l.artifact.Format,
		Name:         l.artifact.Name,
		Version:      l.artifact.Version,
		Labels:       l.artifact.Labels,
		FeatureCount: l.artifact.featureCount(),
	}
}

func (l *LinearModel) Cleanup() {
	// Nothing to release
}

func (l *LinearModel) tokenize(text string) []string {
	if l.artifact.lowercase() {
		text = strings.ToLower(text)
	}
	return l.tokenPattern.FindAllString(text, -1)
}

// Sparse feature vector (index to value)
func (l *LinearModel) vectorize(text string) map[int]float64 {
	tokens := l.tokenize(text)
	features := make(map[int]float64)
	for n := l.minN; n <= l.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if index, ok := l.artifact.Vocabulary[term]; ok {
				features[index] += 1
			}
		}
	}
	if l.artifact.IDF != nil {
		for index, count := range features {
			features[index] = count * l.artifact.IDF[index]
		}
	}
	if l.artifact.Norm != NormNone {
		var sum float64
		for _, v := range features {
			sum += v * v
		}
		if sum > 0 {
			norm := math.Sqrt(sum)
			for index, v := range features {
				features[index] = v / norm
			}
		}
	}
	return features
}

func (l *LinearModel) scores(features map[int]float64) []float64 {
	result := make([]float64, len(l.artifact.Coefficients))
	for c, row := range l.artifact.Coefficients {
		score := l.artifact.Intercepts[c]
		for index, v := range features {
			score += row[index] * v
		}
		result[c] = score
	}
	return result
}

func (l *LinearModel) probabilities(scores []float64) []float64 {
	if len(scores) == 1 {
		// binary, the row scores the second label
		p := sigmoid(scores[0])
		return []float64{1 - p, p}
	}
	return softmax(scores)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	result := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		result[i] = math.Exp(s - max)
		sum += result[i]
	}
	for i := range result {
		result[i] /= sum
	}
	return result
}

// First index wins on ties
func argMax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
