package world

import (
	"context"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingMoves []ObserverMove
	var pendingSpawns []Spawn

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case m := <-w.moves:
			pendingMoves = append(pendingMoves, m)
		case s := <-w.spawns:
			pendingSpawns = append(pendingSpawns, s)
		case <-ticker.C:
			w.stepInternal(pendingMoves, pendingSpawns)
			pendingMoves = pendingMoves[:0]
			pendingSpawns = pendingSpawns[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// Move queues an observer move for the next tick of Run. It blocks when the
// queue is full and gives up when ctx is done.
func (w *World) Move(ctx context.Context, m ObserverMove) error {
	select {
	case w.moves <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Spawn queues a spawn for the next tick of Run.
func (w *World) Spawn(ctx context.Context, s Spawn) error {
	select {
	case w.spawns <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StepOnce advances the world by a single tick using the same ordering
// semantics as Run. It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(moves []ObserverMove, spawns ...Spawn) (tick uint64, digest string) {
	e := w.stepInternal(moves, spawns)
	return e.Tick, e.Digest
}
