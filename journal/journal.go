// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"encoding/binary"
	"io"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/skald-foundation/skald/operation"
)

// Frame layout: 4-byte big-endian payload length, 8-byte checksum of
// the payload, then the payload itself.
const (
	headerSize = 12
	// maxPayload bounds a single record; a larger length prefix can
	// only come from corruption.
	maxPayload = 64 << 20
)

// recordDomainKey is the BLAKE3 key for record checksums. The byte
// values are the ASCII domain name zero-padded to 32 bytes, keeping
// the key recognizable in hex dumps.
var recordDomainKey = [32]byte{
	's', 'k', 'a', 'l', 'd', '.', 'j', 'o', 'u', 'r', 'n', 'a', 'l', '.',
	'r', 'e', 'c', 'o', 'r', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// checksum computes the 8-byte keyed record checksum.
func checksum(payload []byte) [8]byte {
	hasher, err := blake3.NewKeyed(recordDomainKey[:])
	if err != nil {
		panic("journal: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var sum [8]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}

// Journal is an append-only operation log backed by a single file. It
// is safe for concurrent use.
type Journal struct {
	path string
	log  *slog.Logger

	mu   sync.Mutex
	file *os.File
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open creates or reopens the journal file at path, creating parent
// directories as needed.
func Open(path string, log *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek journal end: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	return &Journal{path: path, log: log, file: file, enc: enc, dec: dec}, nil
}

// Append durably records op. The write is synced before returning.
func (j *Journal) Append(op operation.Operation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	frame, err := j.frame(op)
	if err != nil {
		return err
	}
	if _, err := j.file.Write(frame); err != nil {
		return fmt.Errorf("append journal record: %w", err)
	}
	return j.file.Sync()
}

// Replay returns every intact operation in append order. A torn or
// corrupt tail is logged and truncated away; replay after a crash
// therefore recovers everything up to the last completed append.
func (j *Journal) Replay() ([]operation.Operation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var ops []operation.Operation
	offset := 0
	for offset < len(data) {
		payload, next, ok := j.parseFrame(data, offset)
		if !ok {
			j.log.Warn("truncating torn journal tail",
				"path", j.path, "offset", offset, "discarded", len(data)-offset)
			if err := j.truncateLocked(int64(offset)); err != nil {
				return nil, err
			}
			break
		}
		raw, err := j.dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress journal record at %d: %w", offset, err)
		}
		op, err := operation.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decode journal record at %d: %w", offset, err)
		}
		ops = append(ops, op)
		offset = next
	}
	return ops, nil
}

// Rewrite replaces the journal contents with ops, compacting away
// everything already flushed.
func (j *Journal) Rewrite(ops []operation.Operation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.truncateLocked(0); err != nil {
		return err
	}
	for _, op := range ops {
		frame, err := j.frame(op)
		if err != nil {
			return err
		}
		if _, err := j.file.Write(frame); err != nil {
			return fmt.Errorf("rewrite journal record: %w", err)
		}
	}
	return j.file.Sync()
}

// Size returns the journal file size in bytes.
func (j *Journal) Size() (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	info, err := j.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat journal: %w", err)
	}
	return info.Size(), nil
}

// Close releases the file handle. The journal is unusable afterwards.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.enc.Close()
	j.dec.Close()
	return j.file.Close()
}

func (j *Journal) frame(op operation.Operation) ([]byte, error) {
	raw, err := operation.Encode(op)
	if err != nil {
		return nil, fmt.Errorf("encode journal record: %w", err)
	}
	payload := j.enc.EncodeAll(raw, nil)
	frame := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(payload)))
	sum := checksum(payload)
	copy(frame[4:headerSize], sum[:])
	copy(frame[headerSize:], payload)
	return frame, nil
}

// parseFrame validates the frame at offset and returns its payload and
// the offset of the next frame. ok is false for a short or corrupt
// frame.
func (j *Journal) parseFrame(data []byte, offset int) (payload []byte, next int, ok bool) {
	if offset+headerSize > len(data) {
		return nil, 0, false
	}
	length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
	if length > maxPayload || offset+headerSize+length > len(data) {
		return nil, 0, false
	}
	payload = data[offset+headerSize : offset+headerSize+length]
	sum := checksum(payload)
	if string(sum[:]) != string(data[offset+4:offset+headerSize]) {
		return nil, 0, false
	}
	return payload, offset + headerSize + length, true
}

func (j *Journal) truncateLocked(size int64) error {
	if err := j.file.Truncate(size); err != nil {
		return fmt.Errorf("truncate journal: %w", err)
	}
	if _, err := j.file.Seek(size, io.SeekStart); err != nil {
		return fmt.Errorf("seek journal: %w", err)
	}
	return nil
}
