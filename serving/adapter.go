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

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Adapter state, either uninitialized or ready.
type state interface {
	isReady() bool
}

type uninitialized struct{}

func (uninitialized) isReady() bool {
	return false
}

// The classifier lives inside the ready state, so ready always implies a model.
type ready struct {
	classifier   Classifier
	artifactPath string
	loadedAt     time.Time
}

func (*ready) isReady() bool {
	return true
}

// Readiness as reported to the host runtime.
type Health struct {
	Ready       bool `json:"ready"`
	ModelLoaded bool `json:"model_loaded"`
}

/*
Adapter exposes a classifier loaded by a Backend to the host runtime.
It starts uninitialized and becomes ready after a successful Load.
The transition is one way.
*/
type Adapter struct {
	backend Backend
	logger  *logrus.Entry

	mu    sync.RWMutex
	state state
}

func NewAdapter(backend Backend) *Adapter {
	return &Adapter{
		backend: backend,
		logger:  logrus.WithField("component", "adapter"),
		state:   uninitialized{},
	}
}

// Load the artifact at path. An empty path resolves to ModelPath().
func (a *Adapter) Load(path string) error {
	if path == "" {
		path = ModelPath()
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if current, ok := a.state.(*ready); ok {
		a.logger.Warnf("Model already loaded from %s, ignoring load of %s", current.artifactPath, path)
		return nil
	}

	a.logger.Infof("Loading model from %s", path)
	classifier, err := a.backend.LoadModel(path)
	if err != nil {
		a.logger.Errorf("Failed to load model: %s", err.Error())
		return &LoadError{Path: path, Err: err}
	}
	if classifier == nil {
		a.logger.Errorf("Backend returned no model for %s", path)
		return &LoadError{Path: path, Err: errors.New("backend returned no model")}
	}
	a.state = &ready{
		classifier:   classifier,
		artifactPath: path,
		loadedAt:     time.Now(),
	}
	a.logger.Infof("Model loaded successfully, labels %v", classifier.Labels())
	return nil
}

// Predict one label per input item.
func (a *Adapter) Predict(inputs interface{}, featureNames []string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	classifier, texts, err := a.prepare(OpPredict, inputs)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("Received prediction request with %d samples", len(texts))

	labels, err := classifier.Predict(texts)
	if err != nil {
		a.logger.Errorf("Prediction failed: %s", err.Error())
		return nil, &InferenceError{Op: OpPredict, Err: err}
	}
	if len(labels) != len(texts) {
		err = errors.Errorf("classifier returned %d labels for %d inputs", len(labels), len(texts))
		a.logger.Errorf("Prediction failed: %s", err.Error())
		return nil, &InferenceError{Op: OpPredict, Err: err}
	}
	a.logger.Debugf("Predictions: %v", labels)
	return labels, nil
}

// Predict one probability vector per input item, ordered like Labels().
func (a *Adapter) PredictProba(inputs interface{}, featureNames []string) ([][]float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	classifier, texts, err := a.prepare(OpPredictProba, inputs)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("Received probability request with %d samples", len(texts))

	probabilities, err := classifier.PredictProba(texts)
	if err != nil {
		a.logger.Errorf("Probability prediction failed: %s", err.Error())
		return nil, &InferenceError{Op: OpPredictProba, Err: err}
	}
	if len(probabilities) != len(texts) {
		err = errors.Errorf("classifier returned %d probability vectors for %d inputs", len(probabilities), len(texts))
		a.logger.Errorf("Probability prediction failed: %s", err.Error())
		return nil, &InferenceError{Op: OpPredictProba, Err: err}
	}
	return probabilities, nil
}

// Checks readiness before looking at the input. Caller holds the read lock.
func (a *Adapter) prepare(op string, inputs interface{}) (Classifier, Batch, error) {
	r, ok := a.state.(*ready)
	if !ok {
		a.logger.Errorf("%s called before model was loaded", op)
		return nil, nil, &InferenceError{Op: op, Err: ErrUninitialized}
	}
	texts, err := NormalizeBatch(inputs)
	if err != nil {
		a.logger.Errorf("Rejecting %s input: %s", op, err.Error())
		return nil, nil, &InferenceError{Op: op, Err: err}
	}
	return r.classifier, texts, nil
}

func (a *Adapter) HealthStatus() Health {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.state.(*ready)
	return Health{
		Ready:       a.state.isReady(),
		ModelLoaded: ok && r.classifier != nil,
	}
}

func (a *Adapter) Ready() bool {
	return a.HealthStatus().Ready
}

// Class labels of the loaded model, nil if not ready.
func (a *Adapter) Labels() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if r, ok := a.state.(*ready); ok {
		return r.classifier.Labels()
	}
	return nil
}

// Info about the loaded model, nil if not ready.
func (a *Adapter) Info() *ModelInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.state.(*ready)
	if !ok {
		return nil
	}
	info := ModelInfo{Labels: r.classifier.Labels()}
	if backendInfo := r.classifier.Info(); backendInfo != nil {
		info = *backendInfo
	}
	if info.ArtifactPath == "" {
		info.ArtifactPath = r.artifactPath
	}
	return &info
}

// Time of the successful load, zero if not ready.
func (a *Adapter) LoadedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if r, ok := a.state.(*ready); ok {
		return r.loadedAt
	}
	return time.Time{}
}

// Releases the classifier. Only meant for process shutdown, the adapter stays ready.
func (a *Adapter) Cleanup() {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if r, ok := a.state.(*ready); ok {
		r.classifier.Cleanup()
	}
}
