// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package samplebus

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gazelab/pursuit/lib/codec"
)

// MaxRecordSize bounds both the raw and the compressed size of one
// record. Samples are tens of bytes; a StreamInfo with a long settings
// sequence is a few kilobytes.
const MaxRecordSize = 1 << 20

// ErrRecordTooLarge is returned when a frame announces a record larger
// than MaxRecordSize.
var ErrRecordTooLarge = errors.New("samplebus: record exceeds maximum size")

// FrameWriter encodes records onto a byte stream.
type FrameWriter struct {
	writer      io.Writer
	compression codec.CompressionTag
	buffer      []byte
}

// NewFrameWriter returns a writer that compresses each record with
// compression where that makes it smaller.
func NewFrameWriter(w io.Writer, compression codec.CompressionTag) *FrameWriter {
	return &FrameWriter{writer: w, compression: compression}
}

// WriteRecord encodes v as CBOR and writes it as one frame with a
// single Write call.
func (fw *FrameWriter) WriteRecord(v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if len(data) > MaxRecordSize {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(data))
	}
	payload, tag, err := codec.Compress(data, fw.compression)
	if err != nil {
		return fmt.Errorf("compressing record: %w", err)
	}

	frame := fw.buffer[:0]
	frame = append(frame, byte(tag))
	frame = binary.AppendUvarint(frame, uint64(len(data)))
	frame = binary.AppendUvarint(frame, uint64(len(payload)))
	frame = append(frame, payload...)
	fw.buffer = frame

	if _, err := fw.writer.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Reader decodes the frames written by a StreamBus outlet.
type Reader struct {
	reader   *bufio.Reader
	info     StreamInfo
	haveInfo bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Info reads the stream header. It must be called before Next; later
// calls return the header already read.
func (r *Reader) Info() (StreamInfo, error) {
	if r.haveInfo {
		return r.info, nil
	}
	if err := r.readRecord(&r.info); err != nil {
		return StreamInfo{}, fmt.Errorf("reading stream info: %w", err)
	}
	r.haveInfo = true
	return r.info, nil
}

// Next reads the next sample. It returns io.EOF when the stream ended
// cleanly between frames.
func (r *Reader) Next() (Sample, error) {
	if !r.haveInfo {
		if _, err := r.Info(); err != nil {
			return Sample{}, err
		}
	}
	var sample Sample
	if err := r.readRecord(&sample); err != nil {
		return Sample{}, err
	}
	return sample, nil
}

func (r *Reader) readRecord(v any) error {
	tagByte, err := r.reader.ReadByte()
	if err != nil {
		// A clean end between frames surfaces as io.EOF unwrapped.
		return err
	}
	rawSize, err := binary.ReadUvarint(r.reader)
	if err != nil {
		return fmt.Errorf("reading raw length: %w", unexpectedEOF(err))
	}
	payloadSize, err := binary.ReadUvarint(r.reader)
	if err != nil {
		return fmt.Errorf("reading payload length: %w", unexpectedEOF(err))
	}
	if rawSize > MaxRecordSize || payloadSize > MaxRecordSize {
		return fmt.Errorf("%w: raw %d, payload %d", ErrRecordTooLarge, rawSize, payloadSize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r.reader, payload); err != nil {
		return fmt.Errorf("reading payload: %w", unexpectedEOF(err))
	}
	data, err := codec.Decompress(payload, codec.CompressionTag(tagByte), int(rawSize))
	if err != nil {
		return err
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
