package persistence

import (
	"fmt"

	"github.com/mikekulinski/coordination/pkg/zxid"
	"google.golang.org/protobuf/encoding/protowire"
)

type TxnType int32

const (
	TxnCreate TxnType = iota + 1
	TxnDelete
	TxnSetData
)

func (t TxnType) String() string {
	switch t {
	case TxnCreate:
		return "create"
	case TxnDelete:
		return "delete"
	case TxnSetData:
		return "setData"
	default:
		return fmt.Sprintf("TxnType(%d)", int32(t))
	}
}

// Txn is a single committed mutation of the tree.
type Txn struct {
	Zxid zxid.ZXID
	Type TxnType
	Path string
	// Data is nil when the node holds no data.
	Data []byte
	// Mode is the creation mode of the node. Only set for TxnCreate.
	Mode uint8
}

const (
	fieldZxid protowire.Number = iota + 1
	fieldType
	fieldPath
	fieldData
	fieldMode
)

// Marshal encodes the transaction using the protobuf wire format.
func (t *Txn) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldZxid, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.Zxid))
	b = protowire.AppendTag(b, fieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.Type))
	b = protowire.AppendTag(b, fieldPath, protowire.BytesType)
	b = protowire.AppendString(b, t.Path)
	if t.Data != nil {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, t.Data)
	}
	if t.Mode != 0 {
		b = protowire.AppendTag(b, fieldMode, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(t.Mode))
	}
	return b
}

// Unmarshal decodes a transaction written by Marshal. Unknown fields are skipped.
func (t *Txn) Unmarshal(b []byte) error {
	*t = Txn{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("error reading tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldZxid && typ == protowire.VarintType,
			num == fieldType && typ == protowire.VarintType,
			num == fieldMode && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("error reading field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldZxid:
				t.Zxid = zxid.ZXID(v)
			case fieldType:
				t.Type = TxnType(v)
			case fieldMode:
				t.Mode = uint8(v)
			}
		case num == fieldPath && typ == protowire.BytesType,
			num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("error reading field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			if num == fieldPath {
				t.Path = string(v)
			} else {
				t.Data = append([]byte{}, v...)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("error skipping field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
