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
	"fmt"

	"github.com/pkg/errors"
)

var ErrUninitialized = errors.New("model not loaded, call Load first")
var ErrMalformedInput = errors.New("malformed input")

const OpPredict = "predict"
const OpPredictProba = "predict_proba"

// Returned when an artifact could not be loaded. The adapter stays uninitialized.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not load model from %s: %s", e.Path, e.Err.Error())
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Returned when a prediction call failed, including calls on a not loaded adapter.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Err.Error())
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Returns true if err is a load failure.
func IsLoadError(err error) bool {
	var loadError *LoadError
	return errors.As(err, &loadError)
}

// Returns true if err is a prediction failure.
func IsInferenceError(err error) bool {
	var inferenceError *InferenceError
	return errors.As(err, &inferenceError)
}
