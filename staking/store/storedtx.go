package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

type TxType uint8

const (
	TxTypeLock TxType = iota
	TxTypeTransfer
	TxTypeDeposit
	TxTypeWithdraw
)

func (t TxType) String() string {
	switch t {
	case TxTypeLock:
		return "lock"
	case TxTypeTransfer:
		return "transfer"
	case TxTypeDeposit:
		return "deposit"
	case TxTypeWithdraw:
		return "withdraw"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

type TxStatus uint8

const (
	// TxStashed the tx is signed but not yet handed to the network
	TxStashed TxStatus = iota
	TxPending
	TxConfirmed
)

func (s TxStatus) String() string {
	switch s {
	case TxStashed:
		return "stashed"
	case TxPending:
		return "pending"
	case TxConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func ParseTxStatus(s string) (TxStatus, error) {
	switch s {
	case "stashed":
		return TxStashed, nil
	case "pending":
		return TxPending, nil
	case "confirmed":
		return TxConfirmed, nil
	default:
		return 0, fmt.Errorf("unknown tx status %q", s)
	}
}

// TxState is the status of a tx in the ledger. Timestamp is only meaningful
// for pending and confirmed txs.
type TxState struct {
	Status    TxStatus
	Timestamp uint64
}

func StashedState() TxState { return TxState{Status: TxStashed} }

func PendingState(ts uint64) TxState { return TxState{Status: TxPending, Timestamp: ts} }

func ConfirmedState(ts uint64) TxState { return TxState{Status: TxConfirmed, Timestamp: ts} }

type TxDetail struct {
	TxType   TxType
	TxID     string
	TxBytes  []byte
	State    TxState
	WalletID [32]byte
	LockTime uint32
}

func encodeTx(d *TxDetail) ([]byte, error) {
	return rlp.EncodeToBytes(d)
}

func decodeTx(b []byte) (*TxDetail, error) {
	var d TxDetail
	if err := rlp.DecodeBytes(b, &d); err != nil {
		return nil, ErrCorruptedStakingDB
	}

	return &d, nil
}
