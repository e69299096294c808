package billing_test

import (
	"errors"
	"math"
	"testing"

	"github.com/hosting-systems/wash/billing"
	"github.com/hosting-systems/wash/money"
)

const root billing.UserID = 0

func newStoreWithRoot(balance money.Unit) *billing.Store {
	store := billing.NewStore()
	store.Put(root, billing.Account{Balance: balance})
	return store
}

func TestOrderHosting(t *testing.T) {
	t.Run("successful order", func(t *testing.T) {
		store := newStoreWithRoot(money.FromCents(100_000))

		if err := store.OrderHosting(root, 30, billing.DefaultPricePerDay); err != nil {
			t.Fatal(err)
		}

		account, err := store.Get(root)
		if err != nil {
			t.Fatal(err)
		}
		if account.Balance != money.FromCents(97_000) {
			t.Fatalf("balance = %d, want %d", account.Balance, money.FromCents(97_000))
		}
		if account.HostingDaysLeft != 30 {
			t.Fatalf("hosting days = %d, want 30", account.HostingDaysLeft)
		}
	})

	t.Run("orders accumulate", func(t *testing.T) {
		store := newStoreWithRoot(money.FromCents(100_000))

		for i := 0; i < 3; i++ {
			if err := store.OrderHosting(root, 10, billing.DefaultPricePerDay); err != nil {
				t.Fatal(err)
			}
		}

		account, _ := store.Get(root)
		if account.HostingDaysLeft != 30 {
			t.Fatalf("hosting days = %d, want 30", account.HostingDaysLeft)
		}
		if account.Balance != money.FromCents(97_000) {
			t.Fatalf("balance = %d, want %d", account.Balance, money.FromCents(97_000))
		}
	})

	t.Run("zero days rejected", func(t *testing.T) {
		store := newStoreWithRoot(money.FromCents(100_000))
		err := store.OrderHosting(root, 0, billing.DefaultPricePerDay)
		if !errors.Is(err, billing.ErrInvalidArgumentValue) {
			t.Fatalf("err = %v, want ErrInvalidArgumentValue", err)
		}
	})

	t.Run("negative days rejected", func(t *testing.T) {
		store := newStoreWithRoot(money.FromCents(100_000))
		err := store.OrderHosting(root, -30, billing.DefaultPricePerDay)
		if !errors.Is(err, billing.ErrInvalidArgumentValue) {
			t.Fatalf("err = %v, want ErrInvalidArgumentValue", err)
		}
	})

	t.Run("total cost overflow", func(t *testing.T) {
		store := newStoreWithRoot(money.FromCents(100_000))
		err := store.OrderHosting(root, 2, money.FromCents(math.MaxInt64))
		if !errors.Is(err, billing.ErrTotalCostExceededMaxValue) {
			t.Fatalf("err = %v, want ErrTotalCostExceededMaxValue", err)
		}
	})

	t.Run("insufficient balance", func(t *testing.T) {
		store := newStoreWithRoot(money.FromCents(50))
		err := store.OrderHosting(root, 1, billing.DefaultPricePerDay)
		if !errors.Is(err, money.ErrWouldBecomeNegative) {
			t.Fatalf("err = %v, want money.ErrWouldBecomeNegative", err)
		}

		// the account must be untouched after a failed order
		account, _ := store.Get(root)
		if account.Balance != money.FromCents(50) || account.HostingDaysLeft != 0 {
			t.Fatalf("failed order mutated the account: %+v", account)
		}
	})

	t.Run("negative balance", func(t *testing.T) {
		store := newStoreWithRoot(money.FromCents(-1))
		err := store.OrderHosting(root, 1, billing.DefaultPricePerDay)
		if !errors.Is(err, money.ErrNegative) {
			t.Fatalf("err = %v, want money.ErrNegative", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		store := billing.NewStore()
		err := store.OrderHosting(42, 1, billing.DefaultPricePerDay)
		if !errors.Is(err, billing.ErrAccountNotFound) {
			t.Fatalf("err = %v, want ErrAccountNotFound", err)
		}
	})
}

func TestCodeRoundTrip(t *testing.T) {
	cases := []struct {
		err  error
		code billing.Code
	}{
		{nil, billing.CodeSuccess},
		{billing.ErrInvalidArgumentValue, billing.CodeInvalidArgumentValue},
		{billing.ErrTotalCostExceededMaxValue, billing.CodeTotalCostExceededMaxValue},
		{money.ErrNegative, billing.CodeNegativeBalance},
		{money.ErrWouldBecomeNegative, billing.CodeBalanceWouldBecomeNegative},
		{money.ErrWouldUnderflow, billing.CodeBalanceWouldUnderflow},
		{billing.ErrAccountNotFound, billing.CodeInternal},
	}

	for _, c := range cases {
		if got := billing.CodeOf(c.err); got != c.code {
			t.Errorf("CodeOf(%v) = %d, want %d", c.err, got, c.code)
		}
	}

	if billing.CodeSuccess.Err() != nil {
		t.Error("CodeSuccess should decode to nil")
	}
	if billing.CodeUnknownImport.Err() == nil {
		t.Error("CodeUnknownImport should decode to an error")
	}
	if billing.Code(1000).Err() == nil {
		t.Error("unrecognized code should decode to an error")
	}
}

func TestCodeNumbersAreStable(t *testing.T) {
	// These values are part of the guest-facing ABI.
	stable := map[billing.Code]int32{
		billing.CodeSuccess:                    0,
		billing.CodeInvalidArgumentValue:       1,
		billing.CodeTotalCostExceededMaxValue:  2,
		billing.CodeNegativeBalance:            3,
		billing.CodeBalanceWouldBecomeNegative: 4,
		billing.CodeBalanceWouldUnderflow:      5,
		billing.CodeUnknownImport:              6,
	}
	for code, want := range stable {
		if int32(code) != want {
			t.Errorf("code %d drifted from ABI value %d", int32(code), want)
		}
	}
}
