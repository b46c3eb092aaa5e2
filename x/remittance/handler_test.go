package remittance

import (
	"context"
	"testing"
	"time"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/remittancetest"
	"github.com/allbabel/remittance/remittancetest/assert"
)

func TestHandler(t *testing.T) {
	f := newFixture(t, 0)
	h := NewHandler(f.engine)
	ctx := context.Background()
	meta := &remittance.Metadata{Schema: 1}

	depositor := f.account(t, 20000)
	recipient := remittancetest.NewAddress()
	commitment := Commit(secrets("single"), recipient)

	// Owner sets the fee first.
	res, err := h.Handle(ctx, f.owner, &SetFeeRateMsg{Metadata: meta, FeeRateBps: 100})
	assert.Nil(t, err)
	assert.Equal(t, 0, len(res.Events))

	res, err = h.Handle(ctx, depositor, &DepositMsg{
		Metadata:   meta,
		Commitment: commitment,
		Timeout:    60,
		Recipient:  recipient,
		Amount:     10000,
	})
	assert.Nil(t, err)
	assert.Equal(t, commitment, res.Data)
	assert.Equal(t, 1, len(res.Events))
	assert.Equal(t, EventDepositCreated, res.Events[0].Kind)
	assert.Equal(t, "10000", res.Events[0].Attr("amount"))
	assert.Equal(t, "100", res.Events[0].Attr("fee"))
	assert.Equal(t, "9900", res.Events[0].Attr("net_amount"))

	d, err := f.engine.Get(ctx, commitment)
	assert.Nil(t, err)
	assert.Equal(t, remittance.AsUnixTime(genesisTime.Add(time.Minute)), d.ExpiresAt)

	// Message validation happens before anything else.
	_, err = h.Handle(ctx, recipient, &WithdrawMsg{Metadata: meta})
	assert.IsErr(t, errors.ErrEmpty, err)

	_, err = h.Handle(ctx, depositor, &WithdrawMsg{Metadata: meta, Secrets: secrets("single")})
	assert.IsErr(t, ErrInvalidDeposit, err)

	res, err = h.Handle(ctx, recipient, &WithdrawMsg{Metadata: meta, Secrets: secrets("single")})
	assert.Nil(t, err)
	amount, err := DecodeAmount(res.Data)
	assert.Nil(t, err)
	assert.Equal(t, uint64(9900), amount)
	assert.Equal(t, EventTransferred, res.Events[0].Kind)

	_, err = h.Handle(ctx, depositor, &RefundMsg{Metadata: meta, Commitment: commitment})
	assert.IsErr(t, ErrInvalidDeposit, err)

	_, err = h.Handle(ctx, depositor, &PauseMsg{Metadata: meta})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = h.Handle(ctx, f.owner, &PauseMsg{Metadata: meta})
	assert.Nil(t, err)
	_, err = h.Handle(ctx, depositor, &DepositMsg{Metadata: meta, Commitment: commitment, Timeout: 60, Amount: 100})
	assert.IsErr(t, ErrPaused, err)
	_, err = h.Handle(ctx, f.owner, &ResumeMsg{Metadata: meta})
	assert.Nil(t, err)

	res, err = h.Handle(ctx, depositor, &DepositMsg{Metadata: meta, Commitment: commitment, Timeout: 60, Amount: 100})
	assert.Nil(t, err)
	f.clock.Advance(time.Minute)
	res, err = h.Handle(ctx, depositor, &RefundMsg{Metadata: meta, Commitment: commitment})
	assert.Nil(t, err)
	amount, err = DecodeAmount(res.Data)
	assert.Nil(t, err)
	assert.Equal(t, uint64(99), amount)
	assert.Equal(t, EventRefunded, res.Events[0].Kind)

	res, err = h.Handle(ctx, f.owner, &SweepFeesMsg{Metadata: meta})
	assert.Nil(t, err)
	amount, err = DecodeAmount(res.Data)
	assert.Nil(t, err)
	assert.Equal(t, uint64(101), amount)
	assert.Equal(t, EventFeesSwept, res.Events[0].Kind)

	_, err = h.Handle(ctx, f.owner, &SetFeeRateMsg{Metadata: meta, FeeRateBps: 10001})
	assert.IsErr(t, ErrInvalidFeeRate, err)
}

func TestHandlerDepositTimeout(t *testing.T) {
	f := newFixture(t, 0)
	h := NewHandler(f.engine)
	ctx := context.Background()
	meta := &remittance.Metadata{Schema: 1}

	depositor := f.account(t, 1000)
	commitment := Commit(secrets("one", "two"), nil)

	// 18446744134 seconds wraps to a minute when converted to nanoseconds.
	_, err := h.Handle(ctx, depositor, &DepositMsg{Metadata: meta, Commitment: commitment, Timeout: 18446744134, Amount: 100})
	assert.IsErr(t, errors.ErrInput, err)
	_, err = f.engine.Get(ctx, commitment)
	assert.IsErr(t, errors.ErrNotFound, err)

	_, err = h.Handle(ctx, depositor, &DepositMsg{Metadata: meta, Commitment: commitment, Timeout: MaxTimeout, Amount: 100})
	assert.Nil(t, err)
	d, err := f.engine.Get(ctx, commitment)
	assert.Nil(t, err)
	assert.Equal(t, remittance.AsUnixTime(genesisTime).Add(time.Duration(MaxTimeout)*time.Second), d.ExpiresAt)

	f.clock.Advance(time.Minute)
	_, err = h.Handle(ctx, depositor, &RefundMsg{Metadata: meta, Commitment: commitment})
	assert.IsErr(t, ErrNotExpired, err)
}

func TestDecodeAmount(t *testing.T) {
	_, err := DecodeAmount([]byte{1, 2})
	assert.IsErr(t, errors.ErrInput, err)

	got, err := DecodeAmount(encodeAmount(1 << 40))
	assert.Nil(t, err)
	assert.Equal(t, uint64(1<<40), got)
}
