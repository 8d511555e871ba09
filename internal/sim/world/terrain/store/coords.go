package store

import "voxelfog.ai/internal/sim/world/logic/mathx"

// Chunks are centered: chunk 0 spans [-size/2, size-size/2) on every axis,
// which for odd sizes is [-half, +half] around the origin.

func ChunkCoordOf(p mathx.Vec3i, size int) ChunkCoord {
	half := size / 2
	return ChunkCoord{
		X: mathx.FloorDiv(p.X+half, size),
		Y: mathx.FloorDiv(p.Y+half, size),
		Z: mathx.FloorDiv(p.Z+half, size),
	}
}

// LocalIndex is the linear index of p inside the chunk ChunkCoordOf(p, size).
func LocalIndex(p mathx.Vec3i, size int) int {
	half := size / 2
	return mathx.Index3(
		mathx.Mod(p.X+half, size),
		mathx.Mod(p.Y+half, size),
		mathx.Mod(p.Z+half, size),
		size,
	)
}

// ChunkOrigin is the global coordinate of local (0,0,0) in chunk cc.
func ChunkOrigin(cc ChunkCoord, size int) mathx.Vec3i {
	half := size / 2
	return mathx.Vec3i{X: cc.X*size - half, Y: cc.Y*size - half, Z: cc.Z*size - half}
}

// GlobalOf inverts (ChunkCoordOf, LocalIndex).
func GlobalOf(cc ChunkCoord, idx, size int) mathx.Vec3i {
	o := ChunkOrigin(cc, size)
	return mathx.Vec3i{
		X: o.X + idx%size,
		Y: o.Y + (idx/size)%size,
		Z: o.Z + idx/(size*size),
	}
}
