// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package samplebus carries time-stamped samples from the presenter to
// a recorder.
//
// A [Bus] opens [Outlet]s. Each outlet is one stream: a [StreamInfo]
// header describing it (name, type, channel layout, static metadata)
// followed by any number of [Sample]s. Outlets never block and never
// fail: a push that cannot be delivered is dropped and counted.
//
// [StreamBus] is the network implementation. It dials one TCP
// connection per outlet and writes frames:
//
//	[1 byte compression tag] [uvarint raw length] [uvarint payload length] [payload]
//
// The payload is a CBOR record, compressed as the tag says (see
// codec.Compress). The first record on a connection is the StreamInfo;
// every later record is a Sample. [Reader] decodes the other end.
//
// [NopBus] is used when no recorder address is configured.
package samplebus
