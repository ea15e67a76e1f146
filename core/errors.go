package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000
	// ErrUnauthorized caller lacks the required role
	ErrUnauthorized ErrorCode = 100001
	// ErrReentrantCall operation re-entered from its own callback
	ErrReentrantCall ErrorCode = 100002

	// ErrInvalidAmount zero or out-of-range amount
	ErrInvalidAmount ErrorCode = 100101
	// ErrInsufficientBalance balance would go negative
	ErrInsufficientBalance ErrorCode = 100102
	// ErrInsufficientAllowance caller-side asset shortfall
	ErrInsufficientAllowance ErrorCode = 100103
	// ErrRatioViolation operation would break the min collateral ratio
	ErrRatioViolation ErrorCode = 100104
	// ErrNotEligible token or account fails a capability check
	ErrNotEligible ErrorCode = 100105
	// ErrNoValue price feed returned zero
	ErrNoValue ErrorCode = 100106
	// ErrDepositProhibited token is not depositable
	ErrDepositProhibited ErrorCode = 100107
	// ErrMintProhibited token is not mintable
	ErrMintProhibited ErrorCode = 100108
	// ErrAccountFlagged account is under an open liquidation auction
	ErrAccountFlagged ErrorCode = 100109
	// ErrStaleVersion a versioned update matched no row; the transaction
	// must abort instead of committing its other writes
	ErrStaleVersion ErrorCode = 100110

	// ErrAuctionNotFound no auction with that nonce
	ErrAuctionNotFound ErrorCode = 100200
	// ErrAuctionClosed auction already closed
	ErrAuctionClosed ErrorCode = 100201
	// ErrAuctionExists target already has an open auction
	ErrAuctionExists ErrorCode = 100202
	// ErrOverfillAttempt bid exceeds the unfilled remainder
	ErrOverfillAttempt ErrorCode = 100203
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}
