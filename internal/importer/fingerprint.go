package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/statement"
)

// LineFingerprint hashes one statement line's content plus its position:
// SHA256("{date}|{amount}|{normalized description}|{index}").
//
// The index term keeps two identical lines within one statement from
// colliding with each other, while re-importing the same statement
// reproduces every fingerprint exactly and trips the import guard.
func LineFingerprint(line domain.StatementLine, index int) string {
	input := fmt.Sprintf("%s|%s|%s|%d",
		line.Date.Format("2006-01-02"),
		line.Amount.String(),
		statement.Normalize(line.Description),
		index,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
