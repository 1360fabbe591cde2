// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package state defines how ledger states are serialized into and restored from the key-value
// store. States that care about their wire format implement Serializer/Deserializer; everything
// else falls back to gob encoding.
package state

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
)

var (
	// ErrStateSerializationFailed indicates the state marshaling failed
	ErrStateSerializationFailed = errors.New("failed to marshal state")
	// ErrStateDeserializationFailed indicates the state unmarshaling failed
	ErrStateDeserializationFailed = errors.New("failed to unmarshal state")
	// ErrStateNotExist indicates the state does not exist
	ErrStateNotExist = errors.New("state does not exist")
)

type (
	// Serializer has a Serialize method to serialize the struct to binary data
	Serializer interface {
		Serialize() ([]byte, error)
	}

	// Deserializer has a Deserialize method to deserialize binary data to struct
	Deserializer interface {
		Deserialize(data []byte) error
	}
)

// Serialize serializes the state into bytes
func Serialize(d interface{}) ([]byte, error) {
	if s, ok := d.(Serializer); ok {
		return s.Serialize()
	}
	var buf bytes.Buffer
	e := gob.NewEncoder(&buf)
	if err := e.Encode(d); err != nil {
		return nil, errors.Wrapf(ErrStateSerializationFailed, "error when serializing %T state", d)
	}
	return buf.Bytes(), nil
}

// Deserialize deserializes the data bytes into the state
func Deserialize(x interface{}, data []byte) error {
	if d, ok := x.(Deserializer); ok {
		return d.Deserialize(data)
	}
	e := gob.NewDecoder(bytes.NewBuffer(data))
	if err := e.Decode(x); err != nil {
		return errors.Wrapf(ErrStateDeserializationFailed, "error when deserializing %T state", x)
	}
	return nil
}
