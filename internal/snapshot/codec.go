package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"matchcore/internal/common"
)

// The codec below mirrors internal/journal's manual encoding/binary
// framing (little-endian, presence-flag byte for optional order fields,
// u32-length-prefixed slices and maps) rather than introducing a second,
// differently-shaped encoding for the same kind of data.

const orderOptionalFlagStopPrice = 1 << 0
const orderOptionalFlagVisibleSize = 1 << 1
const orderOptionalFlagExpireTime = 1 << 2

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) { writeInt32(buf, int32(v)) }

func readInt32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func readInt64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func readUint32(r io.Reader) (uint32, error) {
	v, err := readInt32(r)
	return uint32(v), err
}

func writeSpec(buf *bytes.Buffer, spec common.SymbolSpec) {
	writeInt32(buf, int32(spec.SymbolId))
	writeInt32(buf, int32(spec.SymbolType))
	writeInt32(buf, int32(spec.BaseCurrency))
	writeInt32(buf, int32(spec.QuoteCurrency))
	writeInt64(buf, spec.BaseScaleK)
	writeInt64(buf, spec.QuoteScaleK)
	writeInt64(buf, spec.TakerFee)
	writeInt64(buf, spec.MakerFee)
	writeInt64(buf, spec.MarginBuy)
	writeInt64(buf, spec.MarginSell)
}

func readSpec(r io.Reader) (common.SymbolSpec, error) {
	var spec common.SymbolSpec
	var err error
	var v32 int32
	var v64 int64

	if v32, err = readInt32(r); err != nil {
		return spec, err
	}
	spec.SymbolId = common.SymbolId(v32)
	if v32, err = readInt32(r); err != nil {
		return spec, err
	}
	spec.SymbolType = common.SymbolType(v32)
	if v32, err = readInt32(r); err != nil {
		return spec, err
	}
	spec.BaseCurrency = common.Currency(v32)
	if v32, err = readInt32(r); err != nil {
		return spec, err
	}
	spec.QuoteCurrency = common.Currency(v32)
	if v64, err = readInt64(r); err != nil {
		return spec, err
	}
	spec.BaseScaleK = v64
	if v64, err = readInt64(r); err != nil {
		return spec, err
	}
	spec.QuoteScaleK = v64
	if v64, err = readInt64(r); err != nil {
		return spec, err
	}
	spec.TakerFee = v64
	if v64, err = readInt64(r); err != nil {
		return spec, err
	}
	spec.MakerFee = v64
	if v64, err = readInt64(r); err != nil {
		return spec, err
	}
	spec.MarginBuy = v64
	if v64, err = readInt64(r); err != nil {
		return spec, err
	}
	spec.MarginSell = v64
	return spec, nil
}

func writeOrder(buf *bytes.Buffer, o *common.Order) {
	writeInt64(buf, int64(o.OrderId))
	writeInt64(buf, int64(o.Uid))
	writeInt64(buf, int64(o.Price))
	writeInt64(buf, int64(o.Size))
	writeInt64(buf, int64(o.Filled))
	writeInt32(buf, int32(o.Action))
	writeInt32(buf, int32(o.OrderType))
	writeInt64(buf, int64(o.ReservePrice))
	writeInt64(buf, int64(o.Timestamp))

	var flags byte
	if o.StopPrice != nil {
		flags |= orderOptionalFlagStopPrice
	}
	if o.VisibleSize != nil {
		flags |= orderOptionalFlagVisibleSize
	}
	if o.ExpireTime != nil {
		flags |= orderOptionalFlagExpireTime
	}
	buf.WriteByte(flags)

	if o.StopPrice != nil {
		writeInt64(buf, int64(*o.StopPrice))
	}
	if o.VisibleSize != nil {
		writeInt64(buf, int64(*o.VisibleSize))
	}
	if o.ExpireTime != nil {
		writeInt64(buf, int64(*o.ExpireTime))
	}
}

func readOrder(r io.Reader) (*common.Order, error) {
	o := &common.Order{}
	var err error
	var v32 int32
	var v64 int64

	if v64, err = readInt64(r); err != nil {
		return nil, err
	}
	o.OrderId = common.OrderId(v64)
	if v64, err = readInt64(r); err != nil {
		return nil, err
	}
	o.Uid = common.UserId(v64)
	if v64, err = readInt64(r); err != nil {
		return nil, err
	}
	o.Price = common.Price(v64)
	if v64, err = readInt64(r); err != nil {
		return nil, err
	}
	o.Size = common.Size(v64)
	if v64, err = readInt64(r); err != nil {
		return nil, err
	}
	o.Filled = common.Size(v64)
	if v32, err = readInt32(r); err != nil {
		return nil, err
	}
	o.Action = common.OrderAction(v32)
	if v32, err = readInt32(r); err != nil {
		return nil, err
	}
	o.OrderType = common.OrderType(v32)
	if v64, err = readInt64(r); err != nil {
		return nil, err
	}
	o.ReservePrice = common.Price(v64)
	if v64, err = readInt64(r); err != nil {
		return nil, err
	}
	o.Timestamp = common.Timestamp(v64)

	var flagBuf [1]byte
	if _, err = io.ReadFull(r, flagBuf[:]); err != nil {
		return nil, err
	}
	flags := flagBuf[0]

	if flags&orderOptionalFlagStopPrice != 0 {
		if v64, err = readInt64(r); err != nil {
			return nil, err
		}
		p := common.Price(v64)
		o.StopPrice = &p
	}
	if flags&orderOptionalFlagVisibleSize != 0 {
		if v64, err = readInt64(r); err != nil {
			return nil, err
		}
		s := common.Size(v64)
		o.VisibleSize = &s
	}
	if flags&orderOptionalFlagExpireTime != 0 {
		if v64, err = readInt64(r); err != nil {
			return nil, err
		}
		ts := common.Timestamp(v64)
		o.ExpireTime = &ts
	}
	return o, nil
}

func writeOrderSlice(buf *bytes.Buffer, orders []*common.Order) {
	writeUint32(buf, uint32(len(orders)))
	for _, o := range orders {
		writeOrder(buf, o)
	}
}

func readOrderSlice(r io.Reader) ([]*common.Order, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	orders := make([]*common.Order, 0, n)
	for i := uint32(0); i < n; i++ {
		o, err := readOrder(r)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func writeUserProfile(buf *bytes.Buffer, p *common.UserProfile) {
	writeInt64(buf, int64(p.Uid))
	writeUint32(buf, uint32(len(p.Accounts)))
	for currency, amount := range p.Accounts {
		writeInt32(buf, int32(currency))
		writeInt64(buf, amount)
	}
	writeUint32(buf, uint32(len(p.Positions)))
	for symbol, pos := range p.Positions {
		writeInt32(buf, int32(symbol))
		writeInt64(buf, int64(pos.Uid))
		writeInt32(buf, int32(pos.Symbol))
		writeInt64(buf, pos.OpenVolumeLong)
		writeInt64(buf, pos.OpenVolumeShort)
		writeInt64(buf, pos.OpenPriceLong)
		writeInt64(buf, pos.OpenPriceShort)
	}
}

func readUserProfile(r io.Reader) (*common.UserProfile, error) {
	uid, err := readInt64(r)
	if err != nil {
		return nil, err
	}
	profile := common.NewUserProfile(common.UserId(uid))

	accCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < accCount; i++ {
		currency, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		amount, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		profile.Accounts[common.Currency(currency)] = amount
	}

	posCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < posCount; i++ {
		symbol, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		uidField, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		symbolField, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		longVol, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		shortVol, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		longPrice, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		shortPrice, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		profile.Positions[common.SymbolId(symbol)] = &common.PositionRecord{
			Uid:             common.UserId(uidField),
			Symbol:          common.SymbolId(symbolField),
			OpenVolumeLong:  longVol,
			OpenVolumeShort: shortVol,
			OpenPriceLong:   longPrice,
			OpenPriceShort:  shortPrice,
		}
	}
	return profile, nil
}

// encodeState serializes the entire exchange state, uncompressed; Store
// wraps the result in zstd before it reaches disk.
func encodeState(s *State) []byte {
	var buf bytes.Buffer

	writeInt64(&buf, int64(s.SeqId))

	writeUint32(&buf, uint32(len(s.Users)))
	for _, u := range s.Users {
		writeUserProfile(&buf, u)
	}

	writeUint32(&buf, uint32(len(s.Books)))
	for _, b := range s.Books {
		writeSpec(&buf, b.Spec)
		writeInt64(&buf, int64(b.LastTradePrice))
		writeOrderSlice(&buf, b.RestingOrders)
		writeOrderSlice(&buf, b.StopOrders)
	}

	return buf.Bytes()
}

// decodeState is encodeState's inverse.
func decodeState(data []byte) (*State, error) {
	r := bytes.NewReader(data)
	s := &State{}

	seq, err := readInt64(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read seq id: %w", err)
	}
	s.SeqId = uint64(seq)

	userCount, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read user count: %w", err)
	}
	s.Users = make([]*common.UserProfile, 0, userCount)
	for i := uint32(0); i < userCount; i++ {
		u, err := readUserProfile(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot: read user %d: %w", i, err)
		}
		s.Users = append(s.Users, u)
	}

	bookCount, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read book count: %w", err)
	}
	s.Books = make([]BookState, 0, bookCount)
	for i := uint32(0); i < bookCount; i++ {
		spec, err := readSpec(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot: read book %d spec: %w", i, err)
		}
		lastPrice, err := readInt64(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot: read book %d last price: %w", i, err)
		}
		resting, err := readOrderSlice(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot: read book %d resting orders: %w", i, err)
		}
		stops, err := readOrderSlice(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot: read book %d stop orders: %w", i, err)
		}
		s.Books = append(s.Books, BookState{
			Spec:           spec,
			LastTradePrice: common.Price(lastPrice),
			RestingOrders:  resting,
			StopOrders:     stops,
		})
	}

	return s, nil
}
