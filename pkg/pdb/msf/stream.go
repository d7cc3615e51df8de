package msf

import (
	"fmt"
	"io"
)

// Stream is a single stream within an MSF file, stored as a list of
// possibly non-contiguous blocks.
type Stream struct {
	msf    *MSF
	size   uint32
	blocks []uint32
}

// Size returns the size of the stream in bytes.
func (s *Stream) Size() uint32 {
	return s.size
}

// Blocks returns the block indices that make up this stream.
func (s *Stream) Blocks() []uint32 {
	return s.blocks
}

// ReadAll reads the entire stream contents.
func (s *Stream) ReadAll() ([]byte, error) {
	data := make([]byte, s.size)
	if _, err := io.ReadFull(NewStreamReader(s), data); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	return data, nil
}

// StreamReader gives sequential access to a stream, hiding the block layout.
type StreamReader struct {
	stream *Stream
	offset int64
}

// NewStreamReader creates a reader positioned at the start of s.
func NewStreamReader(s *Stream) *StreamReader {
	return &StreamReader{stream: s}
}

// Read implements io.Reader.
func (sr *StreamReader) Read(p []byte) (int, error) {
	size := int64(sr.stream.size)
	if sr.offset >= size {
		return 0, io.EOF
	}

	blockSize := int64(sr.stream.msf.superBlock.BlockSize)
	total := 0
	for len(p) > 0 && sr.offset < size {
		blockIdx := sr.offset / blockSize
		if blockIdx >= int64(len(sr.stream.blocks)) {
			return total, fmt.Errorf("stream offset %d past last block", sr.offset)
		}
		inBlock := sr.offset % blockSize

		n := min(int64(len(p)), blockSize-inBlock, size-sr.offset)
		fileOffset := int64(sr.stream.blocks[blockIdx])*blockSize + inBlock

		read, err := sr.stream.msf.readAt(p[:n], fileOffset)
		total += read
		sr.offset += int64(read)
		p = p[read:]
		if err != nil && err != io.EOF {
			return total, err
		}
		if read == 0 {
			return total, io.ErrUnexpectedEOF
		}
	}

	return total, nil
}

// Seek implements io.Seeker. Offsets are clamped to the stream bounds.
func (sr *StreamReader) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = sr.offset + offset
	case io.SeekEnd:
		next = int64(sr.stream.size) + offset
	default:
		return sr.offset, fmt.Errorf("invalid whence %d", whence)
	}

	sr.offset = max(0, min(next, int64(sr.stream.size)))
	return sr.offset, nil
}

// StreamDirectory is the decoded directory of all streams in the file.
type StreamDirectory struct {
	NumStreams   uint32
	StreamSizes  []uint32
	StreamBlocks [][]uint32
}
