package zxid

import "fmt"

// ZXID identifies a committed mutation of the tree. The high 32 bits hold the epoch and
// the low 32 bits a counter within the epoch. A store starts a new epoch every time it is
// reset, so ids keep increasing across resets and a journal never sees one twice.
type ZXID int64

func NewZXID(epoch int32, counter int32) ZXID {
	return ZXID(int64(epoch)<<32 | int64(uint32(counter)))
}

func (z ZXID) GetEpoch() int32 {
	return int32(z >> 32)
}

func (z ZXID) GetCounter() int32 {
	var maskLow32 ZXID = 0xFFFFFFFF
	return int32(z & maskLow32)
}

// Next returns the id following z in the same epoch.
func (z ZXID) Next() ZXID {
	return NewZXID(z.GetEpoch(), z.GetCounter()+1)
}

// NextEpoch returns the first id of the epoch following z.
func (z ZXID) NextEpoch() ZXID {
	return NewZXID(z.GetEpoch()+1, 0)
}

func (z ZXID) String() string {
	return fmt.Sprintf("0x%x", int64(z))
}
