package world

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"voxelfog.ai/internal/sim/world/io/digestcodec"
)

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestcodec.WriteU64(h, &tmp, nowTick)
	io.WriteString(h, w.chunks.Digest())

	digestcodec.WriteU64(h, &tmp, uint64(len(w.observers)))
	for _, o := range w.observers {
		digestcodec.WriteString(h, &tmp, o.ID)
		digestcodec.WriteVec(h, &tmp, o.Pos)
		digestcodec.WriteU64(h, &tmp, uint64(o.Sight.Radius))
		digestcodec.WriteSortedVecs(h, &tmp, o.Sight.Visible.Sorted())
		digestcodec.WriteU64(h, &tmp, uint64(o.Memory.Len()))
	}

	seekers := w.sortedSeekers()
	digestcodec.WriteU64(h, &tmp, uint64(len(seekers)))
	for _, s := range seekers {
		digestcodec.WriteString(h, &tmp, s.ID)
		digestcodec.WriteVec(h, &tmp, s.Pos)
		h.Write([]byte{digestcodec.BoolByte(s.Pursue)})
	}
	return hex.EncodeToString(h.Sum(nil))
}
