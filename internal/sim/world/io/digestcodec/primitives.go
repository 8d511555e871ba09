package digestcodec

import (
	"encoding/binary"
	"io"

	"voxelfog.ai/internal/sim/world/logic/mathx"
)

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func WriteU64(w io.Writer, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.Write(tmp[:])
}

// WriteVec writes the three components as sign-extended 64-bit words.
func WriteVec(w io.Writer, tmp *[8]byte, v mathx.Vec3i) {
	WriteU64(w, tmp, uint64(int64(v.X)))
	WriteU64(w, tmp, uint64(int64(v.Y)))
	WriteU64(w, tmp, uint64(int64(v.Z)))
}

// WriteString is length-prefixed so adjacent ids cannot run together.
func WriteString(w io.Writer, tmp *[8]byte, s string) {
	WriteU64(w, tmp, uint64(len(s)))
	io.WriteString(w, s)
}
