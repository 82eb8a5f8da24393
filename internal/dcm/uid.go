package dcm

import (
	"math/big"

	"github.com/google/uuid"
)

// uidRoot is the UUID-derived UID arc (ISO/IEC 9834-8, DICOM PS3.5 B.2).
const uidRoot = "2.25."

// NewUID returns a globally unique DICOM UID of the form 2.25.<decimal
// UUID>, at most 44 characters long.
func NewUID() string {
	u := uuid.New()
	return uidRoot + new(big.Int).SetBytes(u[:]).String()
}
