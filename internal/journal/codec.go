package journal

import (
	"encoding/binary"
	"fmt"

	"matchcore/internal/common"
)

// Optional-field presence flags, packed into a single byte that follows
// the fixed fields and precedes the optional ones: the same shape as the
// optionalFlags byte of internal/net's NewOrder wire message.
const (
	flagStopPrice   = 1 << 0
	flagVisibleSize = 1 << 1
	flagExpireTime  = 1 << 2
)

// commandFixedLen is the byte length of every field up to and including
// ServiceFlags, before the flag byte and any optional fields.
const commandFixedLen = 4 + 8 + 8 + 4 + 8 + 8 + 8 + 4 + 4 + 8 + 8 + 4

// encodeCommand serializes cmd's inputs, little-endian throughout.
// ResultCode and MatcherEvents are outputs, not inputs, and are never
// journaled: replay recomputes them by re-running the command through the
// pipeline.
func encodeCommand(cmd *common.Command) []byte {
	size := commandFixedLen + 1
	if cmd.StopPrice != nil {
		size += 8
	}
	if cmd.VisibleSize != nil {
		size += 8
	}
	if cmd.ExpireTime != nil {
		size += 8
	}

	buf := make([]byte, size)
	off := 0
	putInt32 := func(v int32) {
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		off += 4
	}
	putInt64 := func(v int64) {
		binary.LittleEndian.PutUint64(buf[off:], uint64(v))
		off += 8
	}

	putInt32(int32(cmd.Command))
	putInt64(int64(cmd.Uid))
	putInt64(int64(cmd.OrderId))
	putInt32(int32(cmd.Symbol))
	putInt64(int64(cmd.Price))
	putInt64(int64(cmd.ReservePrice))
	putInt64(int64(cmd.Size))
	putInt32(int32(cmd.Action))
	putInt32(int32(cmd.OrderType))
	putInt64(int64(cmd.Timestamp))
	putInt64(int64(cmd.EventsGroup))
	putInt32(cmd.ServiceFlags)

	var flags byte
	if cmd.StopPrice != nil {
		flags |= flagStopPrice
	}
	if cmd.VisibleSize != nil {
		flags |= flagVisibleSize
	}
	if cmd.ExpireTime != nil {
		flags |= flagExpireTime
	}
	buf[off] = flags
	off++

	if cmd.StopPrice != nil {
		putInt64(int64(*cmd.StopPrice))
	}
	if cmd.VisibleSize != nil {
		putInt64(int64(*cmd.VisibleSize))
	}
	if cmd.ExpireTime != nil {
		putInt64(int64(*cmd.ExpireTime))
	}

	return buf
}

// decodeCommand is encodeCommand's inverse. It never returns a command with
// MatcherEvents or a non-zero ResultCode: those are recomputed by replay.
func decodeCommand(buf []byte) (*common.Command, error) {
	if len(buf) < commandFixedLen+1 {
		return nil, fmt.Errorf("journal: frame too short for command header (%d bytes)", len(buf))
	}

	off := 0
	getInt32 := func() int32 {
		v := int32(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		return v
	}
	getInt64 := func() int64 {
		v := int64(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
		return v
	}

	cmd := &common.Command{}
	cmd.Command = common.OrderCommandType(getInt32())
	cmd.Uid = common.UserId(getInt64())
	cmd.OrderId = common.OrderId(getInt64())
	cmd.Symbol = common.SymbolId(getInt32())
	cmd.Price = common.Price(getInt64())
	cmd.ReservePrice = common.Price(getInt64())
	cmd.Size = common.Size(getInt64())
	cmd.Action = common.OrderAction(getInt32())
	cmd.OrderType = common.OrderType(getInt32())
	cmd.Timestamp = common.Timestamp(getInt64())
	cmd.EventsGroup = uint64(getInt64())
	cmd.ServiceFlags = getInt32()

	flags := buf[off]
	off++

	need := func(n int) error {
		if len(buf)-off < n {
			return fmt.Errorf("journal: frame too short for optional fields")
		}
		return nil
	}

	if flags&flagStopPrice != 0 {
		if err := need(8); err != nil {
			return nil, err
		}
		p := common.Price(getInt64())
		cmd.StopPrice = &p
	}
	if flags&flagVisibleSize != 0 {
		if err := need(8); err != nil {
			return nil, err
		}
		s := common.Size(getInt64())
		cmd.VisibleSize = &s
	}
	if flags&flagExpireTime != 0 {
		if err := need(8); err != nil {
			return nil, err
		}
		t := common.Timestamp(getInt64())
		cmd.ExpireTime = &t
	}

	cmd.MatcherEvents = make([]common.MatcherEvent, 0, 4)
	return cmd, nil
}
