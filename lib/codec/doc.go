// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the binary encodings of the sample bus.
//
// JSON is used where a human or another program reads the data: the
// control channel's settings payload and JSON config files. CBOR is
// used on the sample bus, where every record is machine-to-machine.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items, so
// the same record always produces the same bytes.
//
//	data, err := codec.Marshal(sample)
//	err = codec.Unmarshal(data, &sample)
//
// Encoded records may be compressed before they go on the wire. The
// [CompressionTag] travels with each frame so the reader knows how to
// undo it; [Compress] falls back to CompressionNone on its own when a
// record does not shrink.
package codec
