package entries

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/ugorji/go/codec"
)

var (
	// ErrUnknownType is returned when decoding an unsupported entry type.
	ErrUnknownType = errors.New("unknown ledger entry type")
	// ErrShortEntry is returned for data too short to hold a type prefix.
	ErrShortEntry = errors.New("ledger entry data too short")
)

var msgpackHandle = &codec.MsgpackHandle{}

type wireAccountRoot struct {
	Base         BaseEntry `codec:"b"`
	Account      [20]byte  `codec:"a"`
	Sequence     uint32    `codec:"s"`
	Balance      int64     `codec:"bal"`
	OwnerCount   uint32    `codec:"oc"`
	TransferRate uint32    `codec:"tr"`
}

type wireRippleState struct {
	Base           BaseEntry  `codec:"b"`
	Balance        wireAmount `codec:"bal"`
	LowLimit       wireAmount `codec:"ll"`
	HighLimit      wireAmount `codec:"hl"`
	LowQualityIn   uint32     `codec:"lqi"`
	LowQualityOut  uint32     `codec:"lqo"`
	HighQualityIn  uint32     `codec:"hqi"`
	HighQualityOut uint32     `codec:"hqo"`
}

type wireOffer struct {
	Base          BaseEntry  `codec:"b"`
	Account       [20]byte   `codec:"a"`
	Sequence      uint32     `codec:"s"`
	TakerPays     wireAmount `codec:"tp"`
	TakerGets     wireAmount `codec:"tg"`
	BookDirectory [32]byte   `codec:"bd"`
	Expiration    uint32     `codec:"exp"`
}

type wireDirectory struct {
	Base              BaseEntry  `codec:"b"`
	RootIndex         [32]byte   `codec:"r"`
	Indexes           [][32]byte `codec:"idx"`
	TakerPaysCurrency [20]byte   `codec:"tpc"`
	TakerPaysIssuer   [20]byte   `codec:"tpi"`
	TakerGetsCurrency [20]byte   `codec:"tgc"`
	TakerGetsIssuer   [20]byte   `codec:"tgi"`
	ExchangeRate      uint64     `codec:"rate"`
}

// Encode serializes an entry as a big-endian type prefix followed by the
// msgpack body.
func Encode(e entry.Entry) ([]byte, error) {
	var body any
	switch v := e.(type) {
	case *AccountRoot:
		body = wireAccountRoot{
			Base: v.BaseEntry, Account: v.Account, Sequence: v.Sequence,
			Balance: v.Balance, OwnerCount: v.OwnerCount, TransferRate: v.TransferRate,
		}
	case *RippleState:
		body = wireRippleState{
			Base: v.BaseEntry, Balance: toWireAmount(v.Balance),
			LowLimit: toWireAmount(v.LowLimit), HighLimit: toWireAmount(v.HighLimit),
			LowQualityIn: v.LowQualityIn, LowQualityOut: v.LowQualityOut,
			HighQualityIn: v.HighQualityIn, HighQualityOut: v.HighQualityOut,
		}
	case *Offer:
		body = wireOffer{
			Base: v.BaseEntry, Account: v.Account, Sequence: v.Sequence,
			TakerPays: toWireAmount(v.TakerPays), TakerGets: toWireAmount(v.TakerGets),
			BookDirectory: v.BookDirectory, Expiration: v.Expiration,
		}
	case *DirectoryNode:
		body = wireDirectory{
			Base: v.BaseEntry, RootIndex: v.RootIndex, Indexes: v.Indexes,
			TakerPaysCurrency: v.TakerPays.Currency, TakerPaysIssuer: v.TakerPays.Issuer,
			TakerGetsCurrency: v.TakerGets.Currency, TakerGetsIssuer: v.TakerGets.Issuer,
			ExchangeRate: v.ExchangeRate,
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, e)
	}

	var encoded []byte
	if err := codec.NewEncoderBytes(&encoded, msgpackHandle).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Type(), err)
	}
	out := make([]byte, 2, 2+len(encoded))
	binary.BigEndian.PutUint16(out, uint16(e.Type()))
	return append(out, encoded...), nil
}

// Decode parses data written by Encode.
func Decode(data []byte) (entry.Entry, error) {
	if len(data) < 2 {
		return nil, ErrShortEntry
	}
	t := entry.Type(binary.BigEndian.Uint16(data))
	if !t.Known() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	dec := codec.NewDecoderBytes(data[2:], msgpackHandle)

	switch t {
	case entry.TypeAccountRoot:
		var w wireAccountRoot
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", t, err)
		}
		return &AccountRoot{
			BaseEntry: w.Base, Account: w.Account, Sequence: w.Sequence,
			Balance: w.Balance, OwnerCount: w.OwnerCount, TransferRate: w.TransferRate,
		}, nil
	case entry.TypeRippleState:
		var w wireRippleState
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", t, err)
		}
		return &RippleState{
			BaseEntry: w.Base, Balance: w.Balance.amount(),
			LowLimit: w.LowLimit.amount(), HighLimit: w.HighLimit.amount(),
			LowQualityIn: w.LowQualityIn, LowQualityOut: w.LowQualityOut,
			HighQualityIn: w.HighQualityIn, HighQualityOut: w.HighQualityOut,
		}, nil
	case entry.TypeOffer:
		var w wireOffer
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", t, err)
		}
		return &Offer{
			BaseEntry: w.Base, Account: w.Account, Sequence: w.Sequence,
			TakerPays: w.TakerPays.amount(), TakerGets: w.TakerGets.amount(),
			BookDirectory: w.BookDirectory, Expiration: w.Expiration,
		}, nil
	case entry.TypeDirectoryNode:
		var w wireDirectory
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", t, err)
		}
		return &DirectoryNode{
			BaseEntry: w.Base, RootIndex: w.RootIndex, Indexes: w.Indexes,
			TakerPays:    types.Issue{Currency: w.TakerPaysCurrency, Issuer: w.TakerPaysIssuer},
			TakerGets:    types.Issue{Currency: w.TakerGetsCurrency, Issuer: w.TakerGetsIssuer},
			ExchangeRate: w.ExchangeRate,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
}
