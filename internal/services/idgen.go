package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/database"
)

const (
	existsAccountQuery  = `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_no = $1)`
	existsCustomerQuery = `SELECT EXISTS (SELECT 1 FROM customer WHERE cust_id = $1)`
	existsEmployeeQuery = `SELECT EXISTS (SELECT 1 FROM employee WHERE emp_id = $1)`
	existsUsernameQuery = `SELECT EXISTS (SELECT 1 FROM employee WHERE username = $1)`
)

// IDGenerator draws random identifiers from an inclusive range and checks each
// candidate against the store before handing it out.
type IDGenerator struct {
	min      int64
	max      int64
	attempts int
	draw     func(lo, hi int64) (int64, error)
}

func NewIDGenerator(r config.IDRange, attempts int) *IDGenerator {
	if attempts < 1 {
		attempts = 1
	}
	return &IDGenerator{min: r.Min, max: r.Max, attempts: attempts, draw: randomInRange}
}

// Next returns an id for which existsQuery reports false. It must run on the same
// transaction that inserts the row so the check and the insert see the same state.
func (g *IDGenerator) Next(ctx context.Context, q database.Querier, existsQuery string) (int64, error) {
	for i := 0; i < g.attempts; i++ {
		candidate, err := g.draw(g.min, g.max)
		if err != nil {
			return 0, fmt.Errorf("generate id: %w", err)
		}
		var taken bool
		if err := q.QueryRowContext(ctx, existsQuery, candidate).Scan(&taken); err != nil {
			return 0, fmt.Errorf("check id %d: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: no free id in [%d, %d] after %d attempts", ErrConflict, g.min, g.max, g.attempts)
}

func randomInRange(lo, hi int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return 0, err
	}
	return lo + n.Int64(), nil
}
