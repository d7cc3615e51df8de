package pdbtest

import (
	"github.com/jtang613/pdbtojson/pkg/pdb/msf"
)

// BuildMSF lays out streams in an MSF container. A nil stream is written as
// unused; an empty one has size zero. Stream blocks are allocated in order
// after the superblock and the two free block maps, followed by the
// directory and its block map.
func BuildMSF(blockSize uint32, streams [][]byte) []byte {
	bs := int(blockSize)
	blocksFor := func(n int) int { return (n + bs - 1) / bs }

	next := uint32(3)
	lists := make([][]uint32, len(streams))
	for i, s := range streams {
		for range blocksFor(len(s)) {
			lists[i] = append(lists[i], next)
			next++
		}
	}

	dir := &Writer{}
	dir.U32(uint32(len(streams)))
	for _, s := range streams {
		if s == nil {
			dir.U32(0xFFFFFFFF)
		} else {
			dir.U32(uint32(len(s)))
		}
	}
	for _, list := range lists {
		for _, b := range list {
			dir.U32(b)
		}
	}

	var dirBlocks []uint32
	for range blocksFor(dir.Len()) {
		dirBlocks = append(dirBlocks, next)
		next++
	}
	mapBlock := next
	next++

	file := make([]byte, int(next)*bs)
	sb := &Writer{}
	sb.Raw(msf.Magic).
		U32(blockSize).
		U32(1).
		U32(next).
		U32(uint32(dir.Len())).
		U32(0).
		U32(mapBlock)
	copy(file, sb.Bytes())

	place := func(data []byte, blocks []uint32) {
		for i, b := range blocks {
			start := i * bs
			end := min(start+bs, len(data))
			copy(file[int(b)*bs:], data[start:end])
		}
	}
	for i, s := range streams {
		place(s, lists[i])
	}
	place(dir.Bytes(), dirBlocks)

	blockMap := &Writer{}
	for _, b := range dirBlocks {
		blockMap.U32(b)
	}
	copy(file[int(mapBlock)*bs:], blockMap.Bytes())

	return file
}
