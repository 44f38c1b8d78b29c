package cmd

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// chunkRecord is the on-disk shape written by encode and read by
// decode: a minimal self-describing framing around each chunk's
// payload so the two commands can round-trip files for manual
// smoke-testing without a real container format.
type chunkRecord struct {
	Type      media.ChunkType
	Timestamp int64
	Payload   []byte
}

func writeChunkRecord(w io.Writer, rec chunkRecord) error {
	var typeByte byte
	if rec.Type == media.ChunkTypeKey {
		typeByte = 1
	}
	header := make([]byte, 1+8+4)
	header[0] = typeByte
	binary.BigEndian.PutUint64(header[1:9], uint64(rec.Timestamp))
	binary.BigEndian.PutUint32(header[9:13], uint32(len(rec.Payload)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing chunk header: %w", err)
	}
	if _, err := w.Write(rec.Payload); err != nil {
		return fmt.Errorf("writing chunk payload: %w", err)
	}
	return nil
}

func readChunkRecord(r io.Reader) (chunkRecord, error) {
	header := make([]byte, 1+8+4)
	if _, err := io.ReadFull(r, header); err != nil {
		return chunkRecord{}, err
	}
	chunkType := media.ChunkTypeDelta
	if header[0] == 1 {
		chunkType = media.ChunkTypeKey
	}
	timestamp := int64(binary.BigEndian.Uint64(header[1:9]))
	length := binary.BigEndian.Uint32(header[9:13])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return chunkRecord{}, fmt.Errorf("reading chunk payload: %w", err)
	}
	return chunkRecord{Type: chunkType, Timestamp: timestamp, Payload: payload}, nil
}
