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
package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
)

var maxRequestSize int64 = 32 << 20

// A decoded prediction request.
type PredictionInput struct {
	// Passed to the adapter unnormalized
	Inputs       interface{}
	FeatureNames []string
}

type ResponseData struct {
	Names   []string    `json:"names" msgpack:"names"`
	Ndarray interface{} `json:"ndarray" msgpack:"ndarray"`
}

type ResponseMeta struct {
	RequestId string `json:"requestId" msgpack:"requestId"`
}

type PredictionResponse struct {
	Data ResponseData `json:"data" msgpack:"data"`
	Meta ResponseMeta `json:"meta" msgpack:"meta"`
}

// Returned for undecodable request bodies.
var ErrBadRequest = errors.New("could not decode request")

// Returned for bodies above maxRequestSize.
var ErrRequestTooLarge = errors.New("request too large")

func isMsgPack(value string) bool {
	return strings.HasPrefix(value, MimeMsgPack)
}

/*
Consumes and decodes a prediction request.
JSON bodies may be a bare array, {"instances": [...]} or
{"data": {"names": [...], "ndarray": [...]}}.
MessagePack bodies are an array of strings.
*/
func DecodeInput(r *http.Request) (*PredictionInput, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "could not read body")
	}
	if int64(len(body)) > maxRequestSize {
		return nil, errors.Wrapf(ErrRequestTooLarge, "body exceeds %d bytes", maxRequestSize)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &PredictionInput{Inputs: []string{}}, nil
	}
	if isMsgPack(r.Header.Get(HeaderContentType)) {
		return decodeMsgPackInput(body)
	}
	return decodeJsonInput(body)
}

func decodeMsgPackInput(body []byte) (*PredictionInput, error) {
	var texts []string
	if err := msgpack.Unmarshal(body, &texts); err != nil {
		return nil, errors.Wrapf(ErrBadRequest, "invalid msgpack: %s", err.Error())
	}
	if texts == nil {
		texts = []string{}
	}
	return &PredictionInput{Inputs: texts}, nil
}

func decodeJsonInput(body []byte) (*PredictionInput, error) {
	if !json.Valid(body) {
		return nil, errors.Wrap(ErrBadRequest, "invalid json")
	}
	value, dataType, _, err := jsonparser.Get(body)
	if err != nil {
		return nil, errors.Wrapf(ErrBadRequest, "invalid json: %s", err.Error())
	}
	switch dataType {
	case jsonparser.Array:
		inputs, err := decodeJsonArray(value)
		if err != nil {
			return nil, err
		}
		return &PredictionInput{Inputs: inputs}, nil
	case jsonparser.String:
		text, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, errors.Wrap(ErrBadRequest, err.Error())
		}
		return &PredictionInput{Inputs: text}, nil
	case jsonparser.Object:
		return decodeJsonObject(value)
	default:
		return nil, errors.Wrapf(ErrBadRequest, "unexpected json %s", dataType.String())
	}
}

func decodeJsonObject(body []byte) (*PredictionInput, error) {
	var result PredictionInput

	names, namesType, _, err := jsonparser.Get(body, "data", "names")
	if err == nil && namesType == jsonparser.Array {
		_, err = jsonparser.ArrayEach(names, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
			if dataType == jsonparser.String {
				name, _ := jsonparser.ParseString(value)
				result.FeatureNames = append(result.FeatureNames, name)
			}
		})
		if err != nil {
			return nil, errors.Wrapf(ErrBadRequest, "invalid names: %s", err.Error())
		}
	}

	for _, path := range [][]string{{"data", "ndarray"}, {"instances"}, {"strData"}} {
		value, dataType, _, err := jsonparser.Get(body, path...)
		if err == jsonparser.KeyPathNotFoundError {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(ErrBadRequest, "invalid %s: %s", strings.Join(path, "."), err.Error())
		}
		switch dataType {
		case jsonparser.Array:
			inputs, err := decodeJsonArray(value)
			if err != nil {
				return nil, err
			}
			result.Inputs = inputs
		case jsonparser.String:
			text, err := jsonparser.ParseString(value)
			if err != nil {
				return nil, errors.Wrap(ErrBadRequest, err.Error())
			}
			result.Inputs = text
		default:
			return nil, errors.Wrapf(ErrBadRequest, "%s must be an array or string", strings.Join(path, "."))
		}
		return &result, nil
	}
	return nil, errors.Wrap(ErrBadRequest, "expected data.ndarray, instances or strData")
}

// Decodes strings and nested arrays, other values are kept raw for normalization to reject.
func decodeJsonArray(data []byte) ([]interface{}, error) {
	result := []interface{}{}
	var innerErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if innerErr != nil {
			return
		}
		switch dataType {
		case jsonparser.String:
			text, err := jsonparser.ParseString(value)
			if err != nil {
				innerErr = err
				return
			}
			result = append(result, text)
		case jsonparser.Array:
			inner, err := decodeJsonArray(value)
			if err != nil {
				innerErr = err
				return
			}
			result = append(result, inner)
		default:
			result = append(result, json.RawMessage(value))
		}
	})
	if err == nil {
		err = innerErr
	}
	if err != nil {
		return nil, errors.Wrapf(ErrBadRequest, "invalid array: %s", err.Error())
	}
	return result, nil
}

// MessagePack if requested via Accept or sent as MessagePack, JSON otherwise.
func figureOutContentType(r *http.Request) string {
	for _, accept := range r.Header.Values(HeaderAccept) {
		if isMsgPack(accept) {
			return MimeMsgPack
		}
		if strings.HasPrefix(accept, MimeJson) {
			return MimeJson
		}
	}
	if isMsgPack(r.Header.Get(HeaderContentType)) {
		return MimeMsgPack
	}
	return MimeJson
}

/** Writes the response in the negotiated content type. */
func EncodeOutput(w http.ResponseWriter, r *http.Request, response *PredictionResponse) error {
	contentType := figureOutContentType(r)
	var content []byte
	var err error
	if contentType == MimeMsgPack {
		content, err = msgpack.Marshal(response)
	} else {
		content, err = json.Marshal(response)
	}
	if err != nil {
		return errors.Wrap(err, "could not serialize response")
	}
	w.Header().Set(HeaderContentType, contentType)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(content)
	return err
}
