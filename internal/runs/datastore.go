package runs

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Binary log framing. A .wandb file starts with a 7 byte header followed by
// fixed size blocks of chunks; a record larger than the space left in a
// block is split into first/middle/last chunks.
const (
	logIdent       = ":W&B"
	logMagic       = 0xBEE1
	logVersion     = 0
	logHeaderLen   = 7
	logBlockLen    = 32 * 1024
	chunkHeaderLen = 7

	chunkFull   = 1
	chunkFirst  = 2
	chunkMiddle = 3
	chunkLast   = 4
)

// Record field numbers read from the log. Everything else is skipped.
const (
	fieldHistory protowire.Number = 2
	fieldSummary protowire.Number = 3
	fieldConfig  protowire.Number = 5
	fieldRun     protowire.Number = 17

	fieldItemList protowire.Number = 1 // HistoryRecord.item, ConfigRecord.update, SummaryRecord.update

	fieldItemKey       protowire.Number = 1
	fieldItemNestedKey protowire.Number = 2
	fieldItemValueJSON protowire.Number = 16

	fieldRunID          protowire.Number = 1
	fieldRunEntity      protowire.Number = 2
	fieldRunProject     protowire.Number = 3
	fieldRunConfig      protowire.Number = 4
	fieldRunSummary     protowire.Number = 5
	fieldRunDisplayName protowire.Number = 8
)

// ErrBadHeader is returned when a file does not start with a valid log header.
var ErrBadHeader = errors.New("not a wandb binary log")

// RunInfo is the identity recorded in the run record of a binary log.
type RunInfo struct {
	ID          string `json:"run_id"`
	DisplayName string `json:"display_name"`
	Project     string `json:"project"`
	Entity      string `json:"entity"`
}

// Log is the decoded content of a binary log.
type Log struct {
	Run     RunInfo
	History []Row
	Summary map[string]interface{}
	Config  map[string]interface{}
	// Skipped counts chunks and records dropped because they were corrupt.
	Skipped int
}

// ReadLog decodes a binary run log.
func ReadLog(r io.Reader) (*Log, error) {
	sc, err := newChunkScanner(r)
	if err != nil {
		return nil, err
	}

	log := &Log{
		Summary: map[string]interface{}{},
		Config:  map[string]interface{}{},
	}

	first := true
	for {
		rec, err := sc.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			// The first record is the stream header.
			first = false
			continue
		}
		if err := decodeRecord(rec, log); err != nil {
			log.Skipped++
		}
	}
	log.Skipped += sc.skipped
	return log, nil
}

type chunkScanner struct {
	r       io.Reader
	buf     []byte
	block   []byte
	pos     int
	skipped int
}

func newChunkScanner(r io.Reader) (*chunkScanner, error) {
	hdr := make([]byte, logHeaderLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrBadHeader
		}
		return nil, fmt.Errorf("read log header: %w", err)
	}
	if string(hdr[:4]) != logIdent || binary.LittleEndian.Uint16(hdr[4:6]) != logMagic || hdr[6] != logVersion {
		return nil, ErrBadHeader
	}

	s := &chunkScanner{r: r, buf: make([]byte, logBlockLen)}
	// The file header occupies the start of the first block.
	if err := s.fill(logBlockLen - logHeaderLen); err != nil && err != io.EOF {
		return nil, err
	}
	return s, nil
}

func (s *chunkScanner) fill(size int) error {
	n, err := io.ReadFull(s.r, s.buf[:size])
	s.block = s.buf[:n]
	s.pos = 0
	switch err {
	case nil, io.ErrUnexpectedEOF:
		if n == 0 {
			return io.EOF
		}
		return nil
	default:
		return err
	}
}

// next returns the next complete record. Corrupt chunks are counted and
// skipped, along with any partially assembled record they belong to.
func (s *chunkScanner) next() ([]byte, error) {
	var rec []byte
	assembling := false

	for {
		if len(s.block)-s.pos < chunkHeaderLen {
			if err := s.fill(logBlockLen); err != nil {
				return nil, err
			}
			continue
		}

		h := s.block[s.pos:]
		sum := binary.LittleEndian.Uint32(h[0:4])
		n := int(binary.LittleEndian.Uint16(h[4:6]))
		typ := h[6]

		if typ == 0 && n == 0 && sum == 0 {
			// Zero padding up to the end of the block.
			s.pos = len(s.block)
			continue
		}

		start := s.pos + chunkHeaderLen
		end := start + n
		if end > len(s.block) {
			s.skipped++
			s.pos = len(s.block)
			rec, assembling = nil, false
			continue
		}
		data := s.block[start:end]
		s.pos = end

		if chunkChecksum(typ, data) != sum {
			s.skipped++
			rec, assembling = nil, false
			continue
		}

		switch typ {
		case chunkFull:
			if assembling {
				s.skipped++
			}
			return append([]byte(nil), data...), nil
		case chunkFirst:
			if assembling {
				s.skipped++
			}
			rec = append(rec[:0], data...)
			assembling = true
		case chunkMiddle, chunkLast:
			if !assembling {
				s.skipped++
				continue
			}
			rec = append(rec, data...)
			if typ == chunkLast {
				return rec, nil
			}
		default:
			s.skipped++
			rec, assembling = nil, false
		}
	}
}

// chunkChecksum is the CRC-32 (IEEE) of the type byte followed by the payload.
func chunkChecksum(typ byte, data []byte) uint32 {
	crc := crc32.Update(0, crc32.IEEETable, []byte{typ})
	return crc32.Update(crc, crc32.IEEETable, data)
}

func decodeRecord(b []byte, log *Log) error {
	return eachBytesField(b, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldHistory:
			row := Row{}
			if err := decodeItems(v, row); err != nil {
				return err
			}
			log.History = append(log.History, row)
		case fieldSummary:
			return decodeItems(v, log.Summary)
		case fieldConfig:
			return decodeItems(v, log.Config)
		case fieldRun:
			return decodeRun(v, log)
		}
		return nil
	})
}

func decodeRun(b []byte, log *Log) error {
	return eachBytesField(b, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldRunID:
			log.Run.ID = string(v)
		case fieldRunEntity:
			log.Run.Entity = string(v)
		case fieldRunProject:
			log.Run.Project = string(v)
		case fieldRunDisplayName:
			log.Run.DisplayName = string(v)
		case fieldRunConfig:
			return decodeItems(v, log.Config)
		case fieldRunSummary:
			return decodeItems(v, log.Summary)
		}
		return nil
	})
}

// decodeItems reads the repeated key/value_json items of a history, config
// or summary record into dst.
func decodeItems(b []byte, dst map[string]interface{}) error {
	return eachBytesField(b, func(num protowire.Number, v []byte) error {
		if num != fieldItemList {
			return nil
		}
		var key, valueJSON string
		var nested []string
		err := eachBytesField(v, func(num protowire.Number, v []byte) error {
			switch num {
			case fieldItemKey:
				key = string(v)
			case fieldItemNestedKey:
				nested = append(nested, string(v))
			case fieldItemValueJSON:
				valueJSON = string(v)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if key == "" {
			key = strings.Join(nested, ".")
		}
		if key != "" {
			dst[key] = parseJSONValue(valueJSON)
		}
		return nil
	})
}

// eachBytesField walks a protobuf message and calls fn for every
// length-delimited field. Fields of other wire types are skipped.
func eachBytesField(b []byte, fn func(num protowire.Number, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}

// parseJSONValue decodes a value_json payload. Payloads that are not valid
// JSON are kept as the raw string.
func parseJSONValue(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
