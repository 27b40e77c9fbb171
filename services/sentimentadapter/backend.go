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
	"github.com/mantik-ai/core/bridge/sentiment/serving"
	"github.com/pkg/errors"
)

type LinearBackend struct {
}

func (b *LinearBackend) LoadModel(artifactPath string) (serving.Classifier, error) {
	model, err := LoadModel(artifactPath)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func LoadModel(artifactPath string) (*LinearModel, error) {
	artifact, err := ReadArtifact(artifactPath)
	if err != nil {
		return nil, err
	}
	model, err := NewLinearModel(artifact)
	if err != nil {
		return nil, errors.Wrap(err, "could not build model")
	}
	model.artifactPath = artifactPath
	return model, nil
}
