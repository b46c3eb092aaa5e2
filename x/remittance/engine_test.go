package remittance

import (
	"context"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/gconf"
	"github.com/allbabel/remittance/remittancetest"
	"github.com/allbabel/remittance/remittancetest/assert"
	"github.com/allbabel/remittance/store"
	"github.com/allbabel/remittance/x/cash"
)

var genesisTime = time.Date(2019, time.April, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db     remittance.CacheableKVStore
	clock  *remittancetest.Clock
	bank   cash.BaseController
	events *EventLog
	engine *Engine
	owner  remittance.Address
}

func newFixture(t testing.TB, feeRate uint32) *fixture {
	t.Helper()
	db := store.MemStore()
	owner := remittancetest.NewAddress()
	conf := &Configuration{
		Metadata:   &remittance.Metadata{Schema: 1},
		Owner:      owner,
		FeeRateBps: feeRate,
	}
	assert.Nil(t, gconf.Save(db, ConfigName, conf))

	f := &fixture{
		db:     db,
		clock:  remittancetest.NewClock(genesisTime),
		bank:   cash.NewController(cash.NewBucket()),
		events: &EventLog{},
		owner:  owner,
	}
	f.engine = NewEngine(db, f.clock, f.bank, WithEventSink(f.events))
	return f
}

// account returns a new address holding given balance.
func (f *fixture) account(t testing.TB, balance uint64) remittance.Address {
	t.Helper()
	addr := remittancetest.NewAddress()
	if balance > 0 {
		assert.Nil(t, f.bank.IssueCoins(f.db, addr, balance))
	}
	return addr
}

func (f *fixture) balance(t testing.TB, addr remittance.Address) uint64 {
	t.Helper()
	b, err := f.bank.Balance(f.db, addr)
	assert.Nil(t, err)
	return b
}

func (f *fixture) deposit(t testing.TB, req DepositRequest) *Deposit {
	t.Helper()
	d, err := f.engine.Deposit(context.Background(), req)
	assert.Nil(t, err)
	return d
}

func secrets(parts ...string) [][]byte {
	res := make([][]byte, len(parts))
	for i, p := range parts {
		res[i] = []byte(p)
	}
	return res
}

func TestFee(t *testing.T) {
	cases := map[string]struct {
		amount uint64
		bps    uint32
		want   uint64
	}{
		"zero rate":        {amount: 10000, bps: 0, want: 0},
		"one percent":      {amount: 10000, bps: 100, want: 100},
		"rounded down":     {amount: 199, bps: 50, want: 0},
		"small remainder":  {amount: 10099, bps: 100, want: 100},
		"whole amount":     {amount: 12345, bps: 10000, want: 12345},
		"max amount":       {amount: math.MaxUint64, bps: 10000, want: math.MaxUint64},
		"max amount, half": {amount: math.MaxUint64, bps: 5000, want: math.MaxUint64 / 2},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Fee(tc.amount, tc.bps))
		})
	}
}

func TestDeposit(t *testing.T) {
	commitment := Commit(secrets("alpha", "beta"), nil)

	cases := map[string]struct {
		feeRate  uint32
		funds    uint64
		paused   bool
		existing bool
		mutate   func(*DepositRequest)
		wantErr  *errors.Error
		wantNet  uint64
		wantFee  uint64
	}{
		"unbound deposit": {
			funds:   1000,
			wantNet: 600,
		},
		"bound deposit": {
			funds: 1000,
			mutate: func(r *DepositRequest) {
				r.Recipient = remittancetest.NewAddress()
			},
			wantNet: 600,
		},
		"fee is skimmed": {
			feeRate: 250,
			funds:   1000,
			wantNet: 600,
			wantFee: 15,
		},
		"zero amount": {
			funds:   1000,
			mutate:  func(r *DepositRequest) { r.Amount = 0 },
			wantErr: ErrInsufficientValue,
		},
		"zero amount while paused": {
			funds:   1000,
			paused:  true,
			mutate:  func(r *DepositRequest) { r.Amount = 0 },
			wantErr: ErrInsufficientValue,
		},
		"paused": {
			funds:   1000,
			paused:  true,
			wantErr: ErrPaused,
		},
		"timeout too short": {
			funds:   1000,
			mutate:  func(r *DepositRequest) { r.Timeout = 500 * time.Millisecond },
			wantErr: errors.ErrInput,
		},
		"invalid commitment": {
			funds:   1000,
			mutate:  func(r *DepositRequest) { r.Commitment = []byte("short") },
			wantErr: errors.ErrInput,
		},
		"invalid recipient": {
			funds:   1000,
			mutate:  func(r *DepositRequest) { r.Recipient = []byte("bad") },
			wantErr: errors.ErrInput,
		},
		"missing depositor": {
			funds:   1000,
			mutate:  func(r *DepositRequest) { r.Depositor = nil },
			wantErr: errors.ErrInput,
		},
		"duplicate commitment": {
			funds:    1000,
			existing: true,
			wantErr:  ErrDuplicateCommitment,
		},
		"fee consumes everything": {
			feeRate: 10000,
			funds:   1000,
			wantErr: ErrInsufficientValue,
		},
		"fee rounded down to nothing": {
			feeRate: 9999,
			funds:   1000,
			mutate:  func(r *DepositRequest) { r.Amount = 1 },
			wantNet: 1,
		},
		"not enough funds": {
			funds:   100,
			wantErr: errors.ErrInsufficientFunds,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, tc.feeRate)
			ctx := context.Background()
			depositor := f.account(t, tc.funds)

			if tc.existing {
				f.deposit(t, DepositRequest{
					Commitment: commitment,
					Timeout:    time.Hour,
					Depositor:  f.account(t, 100),
					Amount:     100,
				})
			}
			if tc.paused {
				assert.Nil(t, f.engine.Pause(ctx, f.owner))
			}
			f.events.Reset()

			req := DepositRequest{
				Commitment: commitment,
				Timeout:    time.Hour,
				Depositor:  depositor,
				Amount:     600 + tc.wantFee,
			}
			if tc.mutate != nil {
				tc.mutate(&req)
			}
			before, err := f.engine.Get(ctx, commitment)
			if !tc.existing {
				assert.IsErr(t, errors.ErrNotFound, err)
			}

			d, err := f.engine.Deposit(ctx, req)
			assert.IsErr(t, tc.wantErr, err)

			if tc.wantErr != nil {
				// Nothing was changed.
				assert.Equal(t, tc.funds, f.balance(t, depositor))
				after, err := f.engine.Get(ctx, commitment)
				if tc.existing {
					assert.Nil(t, err)
					assert.Equal(t, before, after)
				} else {
					assert.IsErr(t, errors.ErrNotFound, err)
				}
				fees, err := f.engine.AccruedFees(ctx)
				assert.Nil(t, err)
				assert.Equal(t, uint64(0), fees)
				assert.Equal(t, 0, len(f.events.Events()))
				return
			}

			assert.Equal(t, tc.wantNet, d.Amount)
			assert.Equal(t, tc.wantFee, d.Fee)
			assert.Equal(t, remittance.AsUnixTime(genesisTime), d.CreatedAt)
			assert.Equal(t, remittance.AsUnixTime(genesisTime.Add(time.Hour)), d.ExpiresAt)
			assert.Equal(t, req.Recipient, d.Recipient)

			stored, err := f.engine.Get(ctx, commitment)
			assert.Nil(t, err)
			assert.Equal(t, d, stored)

			assert.Equal(t, tc.funds-req.Amount, f.balance(t, depositor))
			assert.Equal(t, tc.wantNet, f.balance(t, EscrowAddress(commitment)))
			assert.Equal(t, tc.wantFee, f.balance(t, FeePoolAddress()))
			fees, err := f.engine.AccruedFees(ctx)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantFee, fees)

			events := f.events.Events()
			assert.Equal(t, 1, len(events))
			assert.Equal(t, EventDepositCreated, events[0].Kind)
			assert.Equal(t, depositor.String(), events[0].Attr("depositor"))
			assert.Equal(t, strconv.FormatUint(req.Amount, 10), events[0].Attr("amount"))
			assert.Equal(t, strconv.FormatUint(tc.wantFee, 10), events[0].Attr("fee"))
			assert.Equal(t, strconv.FormatUint(tc.wantNet, 10), events[0].Attr("net_amount"))
		})
	}
}

func TestWithdrawUnboundScenario(t *testing.T) {
	const amount = 100000000000000000

	for _, feeRate := range []uint32{0, 25} {
		f := newFixture(t, feeRate)
		ctx := context.Background()
		depositor := f.account(t, amount)
		claimant := remittancetest.NewAddress()
		commitment := Commit(secrets("secretA", "secretB"), nil)

		d := f.deposit(t, DepositRequest{
			Commitment: commitment,
			Timeout:    86400 * time.Second,
			Depositor:  depositor,
			Amount:     amount,
		})
		wantFee := Fee(amount, feeRate)
		assert.Equal(t, uint64(amount)-wantFee, d.Amount)

		req := WithdrawRequest{
			Commitment: commitment,
			Secrets:    secrets("secretA", "secretB"),
			Caller:     claimant,
		}
		got, err := f.engine.Withdraw(ctx, req)
		assert.Nil(t, err)
		assert.Equal(t, uint64(amount)-wantFee, got)
		assert.Equal(t, uint64(amount)-wantFee, f.balance(t, claimant))
		assert.Equal(t, uint64(0), f.balance(t, EscrowAddress(commitment)))

		_, err = f.engine.Withdraw(ctx, req)
		assert.IsErr(t, ErrInvalidDeposit, err)
		_, err = f.engine.Refund(ctx, RefundRequest{Commitment: commitment, Caller: depositor})
		assert.IsErr(t, ErrInvalidDeposit, err)
		assert.Equal(t, uint64(amount)-wantFee, f.balance(t, claimant))
	}
}

func TestWithdraw(t *testing.T) {
	recipient := remittancetest.NewAddress()
	stranger := remittancetest.NewAddress()
	unbound := Commit(secrets("one", "two"), nil)
	bound := Commit(secrets("single"), recipient)

	cases := map[string]struct {
		req     WithdrawRequest
		wantErr *errors.Error
		// wantPaid is the commitment which deposit is expected to be paid.
		wantPaid []byte
	}{
		"unbound by anyone": {
			req:      WithdrawRequest{Commitment: unbound, Secrets: secrets("one", "two"), Caller: stranger},
			wantPaid: unbound,
		},
		"unbound derived from secrets": {
			req:      WithdrawRequest{Secrets: secrets("one", "two"), Caller: stranger},
			wantPaid: unbound,
		},
		"unbound secrets swapped": {
			req:     WithdrawRequest{Commitment: unbound, Secrets: secrets("two", "one"), Caller: stranger},
			wantErr: ErrInvalidAnswer,
		},
		"unbound secrets swapped, derived": {
			req:     WithdrawRequest{Secrets: secrets("two", "one"), Caller: stranger},
			wantErr: ErrInvalidDeposit,
		},
		"unbound with a single secret": {
			req:     WithdrawRequest{Commitment: unbound, Secrets: secrets("one"), Caller: stranger},
			wantErr: errors.ErrInput,
		},
		"unbound with an empty secret": {
			req:     WithdrawRequest{Commitment: unbound, Secrets: [][]byte{[]byte("one"), nil}, Caller: stranger},
			wantErr: errors.ErrInput,
		},
		"bound by recipient": {
			req:      WithdrawRequest{Commitment: bound, Secrets: secrets("single"), Caller: recipient},
			wantPaid: bound,
		},
		"bound derived from secret": {
			req:      WithdrawRequest{Secrets: secrets("single"), Caller: recipient},
			wantPaid: bound,
		},
		"bound by stranger": {
			req:     WithdrawRequest{Commitment: bound, Secrets: secrets("single"), Caller: stranger},
			wantErr: errors.ErrUnauthorized,
		},
		"bound derived by stranger": {
			req:     WithdrawRequest{Secrets: secrets("single"), Caller: stranger},
			wantErr: ErrInvalidDeposit,
		},
		"bound with a wrong secret": {
			req:     WithdrawRequest{Commitment: bound, Secrets: secrets("double"), Caller: recipient},
			wantErr: ErrInvalidAnswer,
		},
		"unknown commitment": {
			req:     WithdrawRequest{Commitment: Commit(secrets("x", "y"), nil), Secrets: secrets("x", "y"), Caller: stranger},
			wantErr: ErrInvalidDeposit,
		},
		"too many secrets": {
			req:     WithdrawRequest{Secrets: secrets("a", "b", "c"), Caller: stranger},
			wantErr: errors.ErrInput,
		},
		"no caller": {
			req:     WithdrawRequest{Commitment: unbound, Secrets: secrets("one", "two")},
			wantErr: errors.ErrInput,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, 0)
			ctx := context.Background()
			depositor := f.account(t, 300)
			f.deposit(t, DepositRequest{Commitment: unbound, Timeout: time.Minute, Depositor: depositor, Amount: 100})
			f.deposit(t, DepositRequest{Commitment: bound, Timeout: time.Minute, Depositor: depositor, Amount: 200, Recipient: recipient})
			// Expiry does not prevent a claim.
			f.clock.Advance(time.Hour)
			f.events.Reset()

			amount, err := f.engine.Withdraw(ctx, tc.req)
			assert.IsErr(t, tc.wantErr, err)

			if tc.wantErr != nil {
				assert.Equal(t, uint64(0), f.balance(t, tc.req.Caller))
				assert.Equal(t, uint64(100), f.balance(t, EscrowAddress(unbound)))
				assert.Equal(t, uint64(200), f.balance(t, EscrowAddress(bound)))
				assert.Equal(t, 0, len(f.events.Events()))
				return
			}

			assert.Equal(t, amount, f.balance(t, tc.req.Caller))
			assert.Equal(t, uint64(0), f.balance(t, EscrowAddress(tc.wantPaid)))
			_, err = f.engine.Get(ctx, tc.wantPaid)
			assert.IsErr(t, errors.ErrNotFound, err)

			events := f.events.Events()
			assert.Equal(t, 1, len(events))
			assert.Equal(t, EventTransferred, events[0].Kind)
			assert.Equal(t, tc.req.Caller.String(), events[0].Attr("to"))
		})
	}
}

func TestRefund(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	depositor := f.account(t, 500)
	stranger := remittancetest.NewAddress()
	commitment := Commit(secrets("one", "two"), nil)

	d := f.deposit(t, DepositRequest{Commitment: commitment, Timeout: time.Hour, Depositor: depositor, Amount: 500})

	// Before the expiration nobody can get the value back.
	for _, caller := range []remittance.Address{depositor, stranger} {
		_, err := f.engine.Refund(ctx, RefundRequest{Commitment: commitment, Caller: caller})
		assert.IsErr(t, ErrNotExpired, err)
	}
	f.clock.Set(d.ExpiresAt.Time().Add(-time.Second))
	_, err := f.engine.Refund(ctx, RefundRequest{Commitment: commitment, Caller: depositor})
	assert.IsErr(t, ErrNotExpired, err)

	// Expiration time is inclusive.
	f.clock.Set(d.ExpiresAt.Time())
	_, err = f.engine.Refund(ctx, RefundRequest{Commitment: commitment, Caller: stranger})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, uint64(0), f.balance(t, depositor))

	amount, err := f.engine.Refund(ctx, RefundRequest{Commitment: commitment, Caller: depositor})
	assert.Nil(t, err)
	assert.Equal(t, uint64(500), amount)
	assert.Equal(t, uint64(500), f.balance(t, depositor))
	assert.Equal(t, uint64(0), f.balance(t, EscrowAddress(commitment)))

	_, err = f.engine.Refund(ctx, RefundRequest{Commitment: commitment, Caller: depositor})
	assert.IsErr(t, ErrInvalidDeposit, err)
	_, err = f.engine.Withdraw(ctx, WithdrawRequest{Commitment: commitment, Secrets: secrets("one", "two"), Caller: stranger})
	assert.IsErr(t, ErrInvalidDeposit, err)

	events := f.events.Events()
	assert.Equal(t, 2, len(events))
	assert.Equal(t, EventRefunded, events[1].Kind)
	assert.Equal(t, depositor.String(), events[1].Attr("to"))
	assert.Equal(t, "500", events[1].Attr("amount"))
}

func TestCommitmentIsReusable(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	depositor := f.account(t, 30)
	claimant := remittancetest.NewAddress()
	commitment := Commit(secrets("one", "two"), nil)
	req := DepositRequest{Commitment: commitment, Timeout: time.Hour, Depositor: depositor, Amount: 10}

	f.deposit(t, req)
	_, err := f.engine.Deposit(ctx, req)
	assert.IsErr(t, ErrDuplicateCommitment, err)

	_, err = f.engine.Withdraw(ctx, WithdrawRequest{Secrets: secrets("one", "two"), Caller: claimant})
	assert.Nil(t, err)

	// Once consumed, the same commitment can lock value again.
	f.deposit(t, req)
	assert.Equal(t, uint64(10), f.balance(t, depositor))
	assert.Equal(t, uint64(10), f.balance(t, EscrowAddress(commitment)))
}

func TestConcurrentClaims(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	depositor := f.account(t, 1000)
	commitment := Commit(secrets("one", "two"), nil)
	f.deposit(t, DepositRequest{Commitment: commitment, Timeout: time.Second, Depositor: depositor, Amount: 1000})
	f.clock.Advance(time.Minute)

	const workers = 8
	claimants := make([]remittance.Address, workers)
	for i := range claimants {
		claimants[i] = remittancetest.NewAddress()
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	record := func(err error) {
		if err != nil && !ErrInvalidDeposit.Is(err) {
			t.Errorf("unexpected error: %+v", err)
		}
		if err == nil {
			mu.Lock()
			successes++
			mu.Unlock()
		}
	}
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(caller remittance.Address) {
			defer wg.Done()
			_, err := f.engine.Withdraw(ctx, WithdrawRequest{Secrets: secrets("one", "two"), Caller: caller})
			record(err)
		}(claimants[i])
		go func() {
			defer wg.Done()
			_, err := f.engine.Refund(ctx, RefundRequest{Commitment: commitment, Caller: depositor})
			record(err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	total := f.balance(t, depositor) + f.balance(t, EscrowAddress(commitment))
	for _, c := range claimants {
		total += f.balance(t, c)
	}
	assert.Equal(t, uint64(1000), total)
	assert.Equal(t, uint64(0), f.balance(t, EscrowAddress(commitment)))
	assert.Equal(t, 2, len(f.events.Events()))
}

func TestEventsOfContext(t *testing.T) {
	f := newFixture(t, 0)
	depositor := f.account(t, 10)
	commitment := Commit(secrets("one", "two"), nil)

	var local EventLog
	ctx := WithEvents(context.Background(), &local)
	_, err := f.engine.Deposit(ctx, DepositRequest{Commitment: commitment, Timeout: time.Hour, Depositor: depositor, Amount: 10})
	assert.Nil(t, err)

	_, err = f.engine.Deposit(ctx, DepositRequest{Commitment: commitment, Timeout: time.Hour, Depositor: depositor, Amount: 10})
	assert.IsErr(t, ErrDuplicateCommitment, err)

	assert.Equal(t, f.events.Events(), local.Events())
	assert.Equal(t, 1, len(local.Events()))
}

func TestEngineRequiresConfiguration(t *testing.T) {
	db := store.MemStore()
	bank := cash.NewController(cash.NewBucket())
	depositor := remittancetest.NewAddress()
	assert.Nil(t, bank.IssueCoins(db, depositor, 10))

	e := NewEngine(db, remittancetest.NewClock(genesisTime), bank)
	_, err := e.Deposit(context.Background(), DepositRequest{
		Commitment: Commit(secrets("one", "two"), nil),
		Timeout:    time.Hour,
		Depositor:  depositor,
		Amount:     10,
	})
	assert.IsErr(t, errors.ErrNotFound, err)

	_, err = e.IsRunning(context.Background())
	assert.IsErr(t, errors.ErrNotFound, err)
}
