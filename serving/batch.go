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
	"github.com/pkg/errors"
)

// An ordered sequence of input texts.
type Batch []string

/*
Normalizes the accepted input shapes into a plain Batch.
Supported are flat string sequences, a single string and
column vectors (each row holding exactly one string).
*/
func NormalizeBatch(inputs interface{}) (Batch, error) {
	switch v := inputs.(type) {
	case nil:
		return Batch{}, nil
	case Batch:
		return v, nil
	case []string:
		return Batch(v), nil
	case string:
		return Batch{v}, nil
	case [][]string:
		result := make(Batch, len(v))
		for i, row := range v {
			if len(row) != 1 {
				return nil, errors.Wrapf(ErrMalformedInput, "row %d has %d columns, expected 1", i, len(row))
			}
			result[i] = row[0]
		}
		return result, nil
	case []interface{}:
		result := make(Batch, len(v))
		for i, item := range v {
			s, err := singleText(item)
			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, errors.Wrapf(ErrMalformedInput, "unsupported input type %T", inputs)
	}
}

func singleText(item interface{}) (string, error) {
	switch v := item.(type) {
	case string:
		return v, nil
	case []string:
		if len(v) == 1 {
			return v[0], nil
		}
		return "", errors.Wrapf(ErrMalformedInput, "got %d columns, expected 1", len(v))
	case []interface{}:
		if len(v) != 1 {
			return "", errors.Wrapf(ErrMalformedInput, "got %d columns, expected 1", len(v))
		}
		s, ok := v[0].(string)
		if !ok {
			return "", errors.Wrapf(ErrMalformedInput, "expected string, got %T", v[0])
		}
		return s, nil
	default:
		return "", errors.Wrapf(ErrMalformedInput, "expected string, got %T", item)
	}
}
