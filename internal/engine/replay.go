package engine

import (
	"context"
	"errors"
	"io"

	"github.com/netxfw/rna/internal/capture"
	"github.com/netxfw/rna/pkg/sdk"
)

// ReplayStats summarizes what Replay read and dispatched.
// ReplayStats 汇总 Replay 读取和分发的内容。
type ReplayStats struct {
	Files   int
	Frames  int
	Packets int
	NonIP   int
	Rebuilt int
	// Filtered counts IP and rebuilt packets dropped by engine.filter.
	Filtered int
}

// Replay feeds every packet of the given capture files through the engine, in order.
// With engine.reassemble set, rebuilt-stream packets follow the segments that completed them,
// and data held behind a gap is released once its stream has been idle for
// engine.reassembly_timeout of capture time. The engine must be started.
// Replay 按顺序将给定捕获文件中的每个数据包送入引擎。
// 设置 engine.reassemble 时，重组流数据包紧随完成它们的段之后；
// 流空闲超过 engine.reassembly_timeout（按捕获时间计）后，空洞之后的数据会被释放。引擎必须已启动。
func (m *Manager) Replay(ctx context.Context, paths ...string) (ReplayStats, error) {
	var st ReplayStats
	for _, path := range paths {
		if err := m.replayFile(ctx, path, &st); err != nil {
			return st, err
		}
		st.Files++
	}
	return st, nil
}

func (m *Manager) replayFile(ctx context.Context, path string, st *ReplayStats) error {
	r, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var (
		ra      *capture.Reassembler
		emitErr error
	)
	if m.cfg.Engine.Reassemble {
		ra = capture.NewReassembler(func(p *sdk.Packet) {
			if emitErr != nil {
				return
			}
			st.Rebuilt++
			emitErr = m.replayDispatch(ctx, p, st)
		})
		ra.SetTimeout(m.cfg.Engine.ReassemblyTimeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		st.Frames++

		sp, ok := capture.Convert(p)
		if !ok {
			st.NonIP++
			continue
		}
		st.Packets++
		if err := m.replayDispatch(ctx, sp, st); err != nil {
			return err
		}

		if ra != nil {
			ra.Assemble(p)
			if emitErr != nil {
				return emitErr
			}
		}
	}

	if ra != nil {
		ra.FlushAll()
	}
	m.log.Infof("Replayed %s: %d frames, %d IP packets, %d rebuilt", path, st.Frames, st.Packets, st.Rebuilt)
	return emitErr
}

func (m *Manager) replayDispatch(ctx context.Context, p *sdk.Packet, st *ReplayStats) error {
	queued, err := m.dispatch(ctx, p)
	if err == nil && !queued {
		st.Filtered++
	}
	return err
}
