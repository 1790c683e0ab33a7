package model

import (
	"errors"
	"fmt"
)

// Channel is the tens digit of a purchase state code.
type Channel int

const (
	ChannelDirect   Channel = 1
	ChannelShipped  Channel = 2
	ChannelRefunded Channel = 3
)

func (c Channel) String() string {
	switch c {
	case ChannelDirect:
		return "direct"
	case ChannelShipped:
		return "shipped"
	case ChannelRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ParseChannel accepts the two channels a buyer may pick.
func ParseChannel(s string) (Channel, bool) {
	switch s {
	case "direct":
		return ChannelDirect, true
	case "shipped":
		return ChannelShipped, true
	}
	return 0, false
}

// Stage is the units digit of a purchase state code.
type Stage int

const (
	StageAwaitingPayment Stage = 0
	StagePaid            Stage = 1
	StageDispatched      Stage = 2
	StageDelivered       Stage = 3
)

var ErrUnknownPurchaseState = errors.New("unknown purchase state")

// PurchaseState is the decoded form of Purchase.State. Code and
// DecodePurchaseState are the only places that know the digit layout.
type PurchaseState struct {
	Channel Channel
	Stage   Stage
}

var (
	StateDirectAwaitingPayment  = PurchaseState{ChannelDirect, StageAwaitingPayment}
	StateDirectPaid             = PurchaseState{ChannelDirect, StagePaid}
	StateDirectDelivered        = PurchaseState{ChannelDirect, StageDelivered}
	StateShippedAwaitingPayment = PurchaseState{ChannelShipped, StageAwaitingPayment}
	StateShippedPaid            = PurchaseState{ChannelShipped, StagePaid}
	StateShippedDispatched      = PurchaseState{ChannelShipped, StageDispatched}
	StateShippedDelivered       = PurchaseState{ChannelShipped, StageDelivered}
	StateRefunded               = PurchaseState{ChannelRefunded, StageAwaitingPayment}
)

var legalStates = map[PurchaseState]struct{}{
	StateDirectAwaitingPayment:  {},
	StateDirectPaid:             {},
	StateDirectDelivered:        {},
	StateShippedAwaitingPayment: {},
	StateShippedPaid:            {},
	StateShippedDispatched:      {},
	StateShippedDelivered:       {},
	StateRefunded:               {},
}

// InitialPurchaseState is the state of a freshly created purchase.
func InitialPurchaseState(c Channel) PurchaseState {
	return PurchaseState{Channel: c, Stage: StageAwaitingPayment}
}

// Code encodes the state as channel*10 + stage.
func (s PurchaseState) Code() int {
	return int(s.Channel)*10 + int(s.Stage)
}

func (s PurchaseState) Valid() bool {
	_, ok := legalStates[s]
	return ok
}

// DecodePurchaseState rejects any code outside the legal set.
func DecodePurchaseState(code int) (PurchaseState, error) {
	if code < 0 {
		return PurchaseState{}, fmt.Errorf("%w: %d", ErrUnknownPurchaseState, code)
	}
	s := PurchaseState{Channel: Channel(code / 10), Stage: Stage(code % 10)}
	if !s.Valid() {
		return PurchaseState{}, fmt.Errorf("%w: %d", ErrUnknownPurchaseState, code)
	}
	return s, nil
}

func (s PurchaseState) IsRefunded() bool {
	return s.Channel == ChannelRefunded
}

func (s PurchaseState) IsPaid() bool {
	return !s.IsRefunded() && s.Stage >= StagePaid
}

func (s PurchaseState) IsAwaitingPayment() bool {
	return !s.IsRefunded() && s.Stage == StageAwaitingPayment
}

func (s PurchaseState) IsShipped() bool {
	return s.Channel == ChannelShipped
}

// Commentable reports whether the buyer may leave a comment.
func (s PurchaseState) Commentable() bool {
	return s.IsPaid()
}

// Refundable reports whether a paid purchase may still move to the refunded
// state. Only shipped purchases that have not been delivered qualify.
func (s PurchaseState) Refundable() bool {
	return s.IsShipped() && s.IsPaid() && s.Stage < StageDelivered
}

// WithStage keeps the channel and replaces the stage.
func (s PurchaseState) WithStage(st Stage) PurchaseState {
	return PurchaseState{Channel: s.Channel, Stage: st}
}

// Availability is the artwork mirror value that matches this state.
func (s PurchaseState) Availability() Availability {
	switch {
	case s.IsRefunded():
		return AvailabilityAvailable
	case s.IsPaid():
		return AvailabilitySold
	case s.Channel == ChannelDirect:
		return AvailabilityReservedDirect
	case s.Channel == ChannelShipped:
		return AvailabilityReservedShipped
	}
	return AvailabilityAvailable
}

func (s PurchaseState) String() string {
	return fmt.Sprintf("%s/%d", s.Channel, int(s.Stage))
}

// UnpaidStateCodes lists the codes the reaper scans for.
func UnpaidStateCodes() []int {
	return []int{StateDirectAwaitingPayment.Code(), StateShippedAwaitingPayment.Code()}
}
