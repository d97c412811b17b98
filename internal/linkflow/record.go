package linkflow

import (
	"fmt"
	"math/rand"
	"time"
)

// BuildRecord constructs the record for a successful link. The id is derived from now,
// the account number suffix from rng.
func BuildRecord(md Metadata, now time.Time, rng *rand.Rand) LinkedAccountRecord {
	institution := md.InstitutionName()

	return LinkedAccountRecord{
		ID:            fmt.Sprintf("acc_%d", now.UnixMilli()),
		Name:          institution + " Account",
		Type:          DefaultAccountType,
		Institution:   institution,
		Balance:       DefaultBalance,
		LastUpdated:   now.UTC().Format(recordDateLayout),
		AccountNumber: MaskAccountNumber(1000 + rng.Intn(9000)),
		Connected:     true,
	}
}

// MaskAccountNumber renders a four digit suffix as a masked account number
func MaskAccountNumber(suffix int) string {
	return fmt.Sprintf("****%04d", suffix)
}
