package remittance

import (
	"github.com/allbabel/remittance"
	"github.com/gogo/protobuf/proto"
)

// The messages below are described in codec.proto. They are serialized
// with the protobuf reflection based codec.

// Deposit is an open escrow, stored under its commitment.
type Deposit struct {
	Metadata *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// Depositor locked the value and may reclaim it after expiry.
	Depositor remittance.Address `protobuf:"bytes,2,opt,name=depositor,proto3,casttype=github.com/allbabel/remittance.Address" json:"depositor,omitempty"`
	// Recipient is set for bound puzzles only.
	Recipient remittance.Address `protobuf:"bytes,3,opt,name=recipient,proto3,casttype=github.com/allbabel/remittance.Address" json:"recipient,omitempty"`
	// Amount escrowed, net of fee.
	Amount uint64 `protobuf:"varint,4,opt,name=amount,proto3" json:"amount,omitempty"`
	// Fee taken when the deposit was made.
	Fee       uint64              `protobuf:"varint,5,opt,name=fee,proto3" json:"fee,omitempty"`
	CreatedAt remittance.UnixTime `protobuf:"varint,6,opt,name=created_at,json=createdAt,proto3,casttype=github.com/allbabel/remittance.UnixTime" json:"created_at,omitempty"`
	ExpiresAt remittance.UnixTime `protobuf:"varint,7,opt,name=expires_at,json=expiresAt,proto3,casttype=github.com/allbabel/remittance.UnixTime" json:"expires_at,omitempty"`
}

func (m *Deposit) Reset()         { *m = Deposit{} }
func (m *Deposit) String() string { return proto.CompactTextString(m) }
func (*Deposit) ProtoMessage()    {}

// Configuration is the administrative state of the escrow.
type Configuration struct {
	Metadata *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// Owner is allowed to pause, resume, set the fee rate and sweep fees.
	Owner remittance.Address `protobuf:"bytes,2,opt,name=owner,proto3,casttype=github.com/allbabel/remittance.Address" json:"owner,omitempty"`
	// FeeRateBps is the fee taken from each deposit, in basis points.
	FeeRateBps uint32 `protobuf:"varint,3,opt,name=fee_rate_bps,json=feeRateBps,proto3" json:"fee_rate_bps,omitempty"`
	// Paused blocks new deposits.
	Paused bool `protobuf:"varint,4,opt,name=paused,proto3" json:"paused,omitempty"`
	// AccruedFees is the value held by the fee pool.
	AccruedFees uint64 `protobuf:"varint,5,opt,name=accrued_fees,json=accruedFees,proto3" json:"accrued_fees,omitempty"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}

// DepositMsg locks Amount from the sender against Commitment.
type DepositMsg struct {
	Metadata   *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Commitment []byte               `protobuf:"bytes,2,opt,name=commitment,proto3" json:"commitment,omitempty"`
	// Timeout in seconds after which the depositor may reclaim the value.
	Timeout   int64              `protobuf:"varint,3,opt,name=timeout,proto3" json:"timeout,omitempty"`
	Recipient remittance.Address `protobuf:"bytes,4,opt,name=recipient,proto3,casttype=github.com/allbabel/remittance.Address" json:"recipient,omitempty"`
	Amount    uint64             `protobuf:"varint,5,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *DepositMsg) Reset()         { *m = DepositMsg{} }
func (m *DepositMsg) String() string { return proto.CompactTextString(m) }
func (*DepositMsg) ProtoMessage()    {}

// WithdrawMsg claims a deposit by revealing its secrets. Commitment is
// optional, when empty it is derived from the secrets.
type WithdrawMsg struct {
	Metadata   *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Commitment []byte               `protobuf:"bytes,2,opt,name=commitment,proto3" json:"commitment,omitempty"`
	Secrets    [][]byte             `protobuf:"bytes,3,rep,name=secrets,proto3" json:"secrets,omitempty"`
}

func (m *WithdrawMsg) Reset()         { *m = WithdrawMsg{} }
func (m *WithdrawMsg) String() string { return proto.CompactTextString(m) }
func (*WithdrawMsg) ProtoMessage()    {}

// RefundMsg returns an expired deposit to its depositor.
type RefundMsg struct {
	Metadata   *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Commitment []byte               `protobuf:"bytes,2,opt,name=commitment,proto3" json:"commitment,omitempty"`
}

func (m *RefundMsg) Reset()         { *m = RefundMsg{} }
func (m *RefundMsg) String() string { return proto.CompactTextString(m) }
func (*RefundMsg) ProtoMessage()    {}

// PauseMsg blocks new deposits.
type PauseMsg struct {
	Metadata *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
}

func (m *PauseMsg) Reset()         { *m = PauseMsg{} }
func (m *PauseMsg) String() string { return proto.CompactTextString(m) }
func (*PauseMsg) ProtoMessage()    {}

// ResumeMsg allows new deposits again.
type ResumeMsg struct {
	Metadata *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
}

func (m *ResumeMsg) Reset()         { *m = ResumeMsg{} }
func (m *ResumeMsg) String() string { return proto.CompactTextString(m) }
func (*ResumeMsg) ProtoMessage()    {}

// SetFeeRateMsg changes the fee taken from new deposits.
type SetFeeRateMsg struct {
	Metadata   *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	FeeRateBps uint32               `protobuf:"varint,2,opt,name=fee_rate_bps,json=feeRateBps,proto3" json:"fee_rate_bps,omitempty"`
}

func (m *SetFeeRateMsg) Reset()         { *m = SetFeeRateMsg{} }
func (m *SetFeeRateMsg) String() string { return proto.CompactTextString(m) }
func (*SetFeeRateMsg) ProtoMessage()    {}

// SweepFeesMsg transfers all accrued fees to the owner.
type SweepFeesMsg struct {
	Metadata *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
}

func (m *SweepFeesMsg) Reset()         { *m = SweepFeesMsg{} }
func (m *SweepFeesMsg) String() string { return proto.CompactTextString(m) }
func (*SweepFeesMsg) ProtoMessage()    {}
