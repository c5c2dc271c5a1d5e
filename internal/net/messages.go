package net

import (
	"encoding/binary"
	"errors"
	"fmt"

	"matchcore/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for declared body")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	MoveOrder
	ReduceOrder
)

type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	RejectReport
	ReduceReport
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants. Every length below is the body length after
// the 2-byte type header has already been stripped by parseMessage.
const (
	BaseMessageHeaderLen = 2

	// uid(8) + orderId(8) + symbol(4) + price(8) + reservePrice(8) +
	// size(8) + action(1) + orderType(1) + optionalFlags(1)
	NewOrderMessageHeaderLen = 8 + 8 + 4 + 8 + 8 + 8 + 1 + 1 + 1

	// uid(8) + orderId(8) + symbol(4)
	CancelOrderMessageHeaderLen = 8 + 8 + 4

	// uid(8) + orderId(8) + symbol(4) + newPrice(8) + reservePrice(8)
	MoveOrderMessageHeaderLen = 8 + 8 + 4 + 8 + 8

	// uid(8) + orderId(8) + symbol(4) + reduceBy(8)
	ReduceOrderMessageHeaderLen = 8 + 8 + 4 + 8
)

type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, errors.New("message too short to contain header")
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(msg)
	case CancelOrder:
		return parseCancelOrder(msg)
	case MoveOrder:
		return parseMoveOrder(msg)
	case ReduceOrder:
		return parseReduceOrder(msg)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

const (
	newOrderFlagStopPrice   = 1 << 0
	newOrderFlagVisibleSize = 1 << 1
	newOrderFlagExpireTime  = 1 << 2
)

type NewOrderMessage struct {
	BaseMessage
	Uid          common.UserId
	OrderId      common.OrderId
	Symbol       common.SymbolId
	Price        common.Price
	ReservePrice common.Price
	Size         common.Size
	Action       common.OrderAction
	OrderType    common.OrderType
	StopPrice    *common.Price
	VisibleSize  *common.Size
	ExpireTime   *common.Timestamp
}

// Command converts the wire message to a matching-engine command.
func (o NewOrderMessage) Command() common.Command {
	cmd := common.NewCommand()
	cmd.Command = common.PlaceOrder
	cmd.Uid = o.Uid
	cmd.OrderId = o.OrderId
	cmd.Symbol = o.Symbol
	cmd.Price = o.Price
	cmd.ReservePrice = o.ReservePrice
	cmd.Size = o.Size
	cmd.Action = o.Action
	cmd.OrderType = o.OrderType
	cmd.StopPrice = o.StopPrice
	cmd.VisibleSize = o.VisibleSize
	cmd.ExpireTime = o.ExpireTime
	return cmd
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.Uid = common.UserId(binary.BigEndian.Uint64(msg[0:8]))
	m.OrderId = common.OrderId(binary.BigEndian.Uint64(msg[8:16]))
	m.Symbol = common.SymbolId(binary.BigEndian.Uint32(msg[16:20]))
	m.Price = common.Price(binary.BigEndian.Uint64(msg[20:28]))
	m.ReservePrice = common.Price(binary.BigEndian.Uint64(msg[28:36]))
	m.Size = common.Size(binary.BigEndian.Uint64(msg[36:44]))
	m.Action = common.OrderAction(msg[44])
	m.OrderType = common.OrderType(msg[45])
	flags := msg[46]

	off := NewOrderMessageHeaderLen
	need := func(n int) error {
		if len(msg)-off < n {
			return ErrMessageTooShort
		}
		return nil
	}
	if flags&newOrderFlagStopPrice != 0 {
		if err := need(8); err != nil {
			return NewOrderMessage{}, err
		}
		p := common.Price(binary.BigEndian.Uint64(msg[off : off+8]))
		m.StopPrice = &p
		off += 8
	}
	if flags&newOrderFlagVisibleSize != 0 {
		if err := need(8); err != nil {
			return NewOrderMessage{}, err
		}
		s := common.Size(binary.BigEndian.Uint64(msg[off : off+8]))
		m.VisibleSize = &s
		off += 8
	}
	if flags&newOrderFlagExpireTime != 0 {
		if err := need(8); err != nil {
			return NewOrderMessage{}, err
		}
		t := common.Timestamp(binary.BigEndian.Uint64(msg[off : off+8]))
		m.ExpireTime = &t
		off += 8
	}

	return m, nil
}

type CancelOrderMessage struct {
	BaseMessage
	Uid     common.UserId
	OrderId common.OrderId
	Symbol  common.SymbolId
}

func (c CancelOrderMessage) Command() common.Command {
	cmd := common.NewCommand()
	cmd.Command = common.CancelOrder
	cmd.Uid = c.Uid
	cmd.OrderId = c.OrderId
	cmd.Symbol = c.Symbol
	return cmd
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.Uid = common.UserId(binary.BigEndian.Uint64(msg[0:8]))
	m.OrderId = common.OrderId(binary.BigEndian.Uint64(msg[8:16]))
	m.Symbol = common.SymbolId(binary.BigEndian.Uint32(msg[16:20]))
	return m, nil
}

type MoveOrderMessage struct {
	BaseMessage
	Uid          common.UserId
	OrderId      common.OrderId
	Symbol       common.SymbolId
	NewPrice     common.Price
	ReservePrice common.Price
}

func (m MoveOrderMessage) Command() common.Command {
	cmd := common.NewCommand()
	cmd.Command = common.MoveOrder
	cmd.Uid = m.Uid
	cmd.OrderId = m.OrderId
	cmd.Symbol = m.Symbol
	cmd.Price = m.NewPrice
	cmd.ReservePrice = m.ReservePrice
	return cmd
}

func parseMoveOrder(msg []byte) (MoveOrderMessage, error) {
	if len(msg) < MoveOrderMessageHeaderLen {
		return MoveOrderMessage{}, ErrMessageTooShort
	}
	m := MoveOrderMessage{BaseMessage: BaseMessage{TypeOf: MoveOrder}}
	m.Uid = common.UserId(binary.BigEndian.Uint64(msg[0:8]))
	m.OrderId = common.OrderId(binary.BigEndian.Uint64(msg[8:16]))
	m.Symbol = common.SymbolId(binary.BigEndian.Uint32(msg[16:20]))
	m.NewPrice = common.Price(binary.BigEndian.Uint64(msg[20:28]))
	m.ReservePrice = common.Price(binary.BigEndian.Uint64(msg[28:36]))
	return m, nil
}

type ReduceOrderMessage struct {
	BaseMessage
	Uid      common.UserId
	OrderId  common.OrderId
	Symbol   common.SymbolId
	ReduceBy common.Size
}

func (r ReduceOrderMessage) Command() common.Command {
	cmd := common.NewCommand()
	cmd.Command = common.ReduceOrder
	cmd.Uid = r.Uid
	cmd.OrderId = r.OrderId
	cmd.Symbol = r.Symbol
	cmd.Size = r.ReduceBy
	return cmd
}

func parseReduceOrder(msg []byte) (ReduceOrderMessage, error) {
	if len(msg) < ReduceOrderMessageHeaderLen {
		return ReduceOrderMessage{}, ErrMessageTooShort
	}
	m := ReduceOrderMessage{BaseMessage: BaseMessage{TypeOf: ReduceOrder}}
	m.Uid = common.UserId(binary.BigEndian.Uint64(msg[0:8]))
	m.OrderId = common.OrderId(binary.BigEndian.Uint64(msg[8:16]))
	m.Symbol = common.SymbolId(binary.BigEndian.Uint32(msg[16:20]))
	m.ReduceBy = common.Size(binary.BigEndian.Uint64(msg[20:28]))
	return m, nil
}

// Report is the wire form of a single matcher event plus its command's
// result code, the egress counterpart to NewOrderMessage/CancelOrderMessage.
type Report struct {
	MessageType     ReportMessageType
	ResultCode      common.CommandResultCode
	Uid             common.UserId
	OrderId         common.OrderId
	Symbol          common.SymbolId
	Price           common.Price
	Size            common.Size
	MatchedOrderId  common.OrderId
	MatchedOrderUid common.UserId
	ErrStrLen       uint32
	Err             string
}

const reportFixedHeaderLen = 1 + 1 + 8 + 8 + 4 + 8 + 8 + 8 + 8 + 4

// Serialize converts the report to its wire form.
func (r *Report) Serialize() []byte {
	total := reportFixedHeaderLen + len(r.Err)
	buf := make([]byte, total)

	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.ResultCode)
	binary.BigEndian.PutUint64(buf[2:10], uint64(r.Uid))
	binary.BigEndian.PutUint64(buf[10:18], uint64(r.OrderId))
	binary.BigEndian.PutUint32(buf[18:22], uint32(r.Symbol))
	binary.BigEndian.PutUint64(buf[22:30], uint64(r.Price))
	binary.BigEndian.PutUint64(buf[30:38], uint64(r.Size))
	binary.BigEndian.PutUint64(buf[38:46], uint64(r.MatchedOrderId))
	binary.BigEndian.PutUint64(buf[46:54], uint64(r.MatchedOrderUid))
	binary.BigEndian.PutUint32(buf[54:58], r.ErrStrLen)
	if r.ErrStrLen > 0 {
		copy(buf[reportFixedHeaderLen:], r.Err)
	}
	return buf
}

// reportsForCommand builds one Report per matcher event the command
// produced, plus a trailing execution-ack report carrying the command's
// final result code when it produced no events (pure acks/rejects that
// never reached the matcher, e.g. AuthInvalidUser).
func reportsForCommand(cmd *common.Command) []Report {
	if len(cmd.MatcherEvents) == 0 {
		return []Report{{
			MessageType: ExecutionReport,
			ResultCode:  cmd.ResultCode,
			Uid:         cmd.Uid,
			OrderId:     cmd.OrderId,
			Symbol:      cmd.Symbol,
		}}
	}

	reports := make([]Report, 0, len(cmd.MatcherEvents))
	for _, ev := range cmd.MatcherEvents {
		msgType := ExecutionReport
		switch ev.Kind {
		case common.EventReject:
			msgType = RejectReport
		case common.EventReduce:
			msgType = ReduceReport
		}
		reports = append(reports, Report{
			MessageType:     msgType,
			ResultCode:      cmd.ResultCode,
			Uid:             cmd.Uid,
			OrderId:         cmd.OrderId,
			Symbol:          cmd.Symbol,
			Price:           ev.Price,
			Size:            ev.Size,
			MatchedOrderId:  ev.MatchedOrderId,
			MatchedOrderUid: ev.MatchedOrderUid,
		})
	}
	return reports
}

func errorReport(err error) Report {
	errStr := fmt.Sprintf("%v", err)
	return Report{MessageType: ErrorReport, ErrStrLen: uint32(len(errStr)), Err: errStr}
}
