package ledger

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/gwon477/dmarket/pkg/enums"
)

// Property: after any sequence of appends the running balance of every entry
// equals the previous balance plus its change, and the cached balance equals
// the sum of accepted changes. Rejected (negative) appends leave no trace.
func TestLedgerRunningBalanceProperty(t *testing.T) {
	svc, conn := newSQLiteService(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("balance chain stays additive", prop.ForAll(
		func(changes []int64) bool {
			userID := seedUser(t, conn)
			var expected int64
			for _, change := range changes {
				reason := enums.MileageReasonCharge
				if change < 0 {
					reason = enums.MileageReasonUse
				}
				entry, err := svc.Append(ctx, nil, AppendInput{UserID: userID, Change: change, Reason: reason})
				if expected+change < 0 {
					if err == nil {
						return false
					}
					continue
				}
				if err != nil {
					return false
				}
				expected += change
				if entry.RemainMileage != expected {
					return false
				}
			}
			balance, err := svc.CurrentBalance(ctx, userID)
			if err != nil || balance != expected {
				return false
			}
			return svc.Verify(ctx, userID) == nil
		},
		gen.SliceOfN(12, gen.Int64Range(-20000, 50000)),
	))

	properties.TestingRun(t)
}
