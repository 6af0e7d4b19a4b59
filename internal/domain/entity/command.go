package entity

// CommandKind names a user-initiated mutation.
type CommandKind string

const (
	CommandSwap        CommandKind = "swap"
	CommandStakeInPool CommandKind = "stake_in_pool"
	CommandStake       CommandKind = "stake"
	CommandUnstake     CommandKind = "unstake"
	CommandClaim       CommandKind = "claim"
	CommandCreatePool  CommandKind = "create_pool"
)

// CommandState is the per-surface command state machine:
// Idle -> Submitting -> (Confirmed | Failed) -> Idle.
type CommandState int32

const (
	StateIdle CommandState = iota
	StateSubmitting
	StateConfirmed
	StateFailed
)

func (s CommandState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets the state render as its name in JSON.
func (s CommandState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CommandResult is what a command reports back to its caller.
type CommandResult struct {
	Kind        CommandKind  `json:"kind"`
	State       CommandState `json:"state"`
	TxHash      string       `json:"txHash,omitempty"`
	ApprovalTx  string       `json:"approvalTxHash,omitempty"`
	PoolAddress string       `json:"poolAddress,omitempty"`
	Message     string       `json:"message"`
}

// PoolCardForm holds the inputs of a pool card.
type PoolCardForm struct {
	SelectedPoolTokenID string `json:"selectedPoolTokenId"`
	TokenIDIn           string `json:"tokenIdIn"`
}

// StakingForm holds the inputs of the staking panel.
type StakingForm struct {
	StakeTokenID   string `json:"stakeTokenId"`
	UnstakeTokenID string `json:"unstakeTokenId"`
}

// FactoryForm holds the inputs of the pool creation form.
type FactoryForm struct {
	NFTCollection   string `json:"nftCollection"`
	ReceiptContract string `json:"receiptContract"`
	StonerPool      string `json:"stonerPool"`
	SwapFeeInWei    string `json:"swapFeeInWei"`
	// SwapFee is the same fee in ether, e.g. "0.002". Ignored when SwapFeeInWei is set.
	SwapFee     string `json:"swapFee"`
	StonerShare string `json:"stonerShare"`
}
