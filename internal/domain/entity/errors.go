package entity

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by operations that need a live session.
var ErrNotConnected = errors.New("wallet not connected")

// ConnectionError means no wallet is available or the connection was refused.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to connect wallet: %s: %v", e.Reason, e.Err)
	}
	return "failed to connect wallet: " + e.Reason
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// WrongNetworkError is a warning: the node's chain differs from the configured one.
// It never blocks read-only queries.
type WrongNetworkError struct {
	Expected     uint64
	ExpectedName string
	Actual       uint64
}

func (e *WrongNetworkError) Error() string {
	return fmt.Sprintf("please switch to %s (chain id %d), connected to chain id %d", e.ExpectedName, e.Expected, e.Actual)
}

// ReadFailure is a failed contract read or metadata fetch. It is recovered inside
// the query that hit it and only ever logged.
type ReadFailure struct {
	Query   string
	Target  string
	Method  string
	TokenID string
	Err     error
}

func (e *ReadFailure) Error() string {
	msg := fmt.Sprintf("%s: %s on %s failed", e.Query, e.Method, e.Target)
	if e.TokenID != "" {
		msg += " (token " + e.TokenID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReadFailure) Unwrap() error { return e.Err }

// TxStage identifies where a command failed.
type TxStage string

const (
	StagePrepare  TxStage = "prepare"
	StageSigner   TxStage = "signer"
	StageApproval TxStage = "approval"
	StageSubmit   TxStage = "submit"
	StageConfirm  TxStage = "confirm"
)

// TransactionFailure is an approval or primary transaction that reverted,
// was rejected or could not be confirmed.
type TransactionFailure struct {
	Kind   CommandKind
	Stage  TxStage
	TxHash string
	Err    error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("%s failed: %s", actionLabel(e.Kind), e.message())
}

func (e *TransactionFailure) Unwrap() error { return e.Err }

func (e *TransactionFailure) message() string {
	if e.Err == nil {
		return string(e.Stage) + " error"
	}
	return e.Err.Error()
}

func actionLabel(kind CommandKind) string {
	switch kind {
	case CommandSwap:
		return "Swap"
	case CommandStakeInPool:
		return "Stake"
	case CommandStake:
		return "Staking"
	case CommandUnstake:
		return "Unstaking"
	case CommandClaim:
		return "Claim"
	case CommandCreatePool:
		return "Pool creation"
	default:
		return "Transaction"
	}
}
