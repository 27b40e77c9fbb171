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

import "github.com/mantik-ai/core/bridge/sentiment/serving"

/* A Backend for testing. */
type TestBackend struct {
	Classifier serving.Classifier
	// If set, loading fails with it
	Failure error
	Loads   []string
}

func NewTestBackend(classifier serving.Classifier) *TestBackend {
	return &TestBackend{
		Classifier: classifier,
	}
}

func (t *TestBackend) LoadModel(artifactPath string) (serving.Classifier, error) {
	t.Loads = append(t.Loads, artifactPath)
	if t.Failure != nil {
		return nil, t.Failure
	}
	return t.Classifier, nil
}
