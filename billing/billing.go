// Package billing holds the host-side state a WebAssembly Services
// Module operates on: user accounts with a money balance and a number
// of prepaid hosting days.
//
// The package is independent of the WebAssembly runtime. The services
// module drivers (e.g., services/v0) expose it to guests through host
// functions.
package billing

import (
	"errors"
	"sync"

	"github.com/hosting-systems/wash/money"
)

// DefaultPricePerDay is the price of one day of hosting used when the
// caller does not configure one.
var DefaultPricePerDay = money.FromCents(100)

var (
	// ErrInvalidArgumentValue is returned when a guest passes an
	// argument value outside the accepted domain, e.g. ordering zero
	// or a negative number of days.
	ErrInvalidArgumentValue = errors.New("billing: invalid argument value")

	// ErrTotalCostExceededMaxValue is returned when the total cost of
	// an order does not fit in a money.Unit.
	ErrTotalCostExceededMaxValue = errors.New("billing: total cost exceeded max value")

	// ErrAccountNotFound is returned when an operation references a
	// user without an account in the Store.
	ErrAccountNotFound = errors.New("billing: account not found")
)

// UserID identifies a user account.
type UserID uint64

// Account is the billing state of a single user.
type Account struct {
	Balance         money.Unit
	HostingDaysLeft uint32
}

// Store is a concurrency-safe collection of user accounts.
//
// A Store outlives the services module instances bound to it: many
// instances may be created for the same Store, each acting on behalf
// of one user.
type Store struct {
	mu       sync.RWMutex
	accounts map[UserID]*Account
}

// NewStore creates an empty account Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[UserID]*Account),
	}
}

// Put inserts or replaces the account of a user.
func (s *Store) Put(user UserID, account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user] = &account
}

// Get returns a snapshot of the account of a user.
func (s *Store) Get(user UserID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[user]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *account, nil
}

// Balance returns the balance of a user.
func (s *Store) Balance(user UserID) (money.Unit, error) {
	account, err := s.Get(user)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// OrderHosting orders days of hosting for a user, charging
// pricePerDay * days against the user's balance and crediting the
// days on success. The account is left untouched on any failure.
//
// The checks, in order:
//   - days must be positive (ErrInvalidArgumentValue)
//   - the total cost must not overflow (ErrTotalCostExceededMaxValue)
//   - the balance subtraction must pass all money checks
func (s *Store) OrderHosting(user UserID, days int32, pricePerDay money.Unit) error {
	if days <= 0 {
		return ErrInvalidArgumentValue
	}

	totalCost, ok := pricePerDay.MulInt32(days)
	if !ok {
		return ErrTotalCostExceededMaxValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[user]
	if !ok {
		return ErrAccountNotFound
	}

	newBalance, err := account.Balance.Sub(totalCost)
	if err != nil {
		return err
	}

	account.Balance = newBalance
	account.HostingDaysLeft += uint32(days)
	return nil
}
