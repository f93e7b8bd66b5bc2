package navstate

import (
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

// idPattern matches ids produced by NewID.
var idPattern = regexp.MustCompile(`^\d+-[a-z0-9]+$`)

// NewID mints a navigation attempt id of the form "<unix millis>-<base36>".
// The timestamp prefix orders ids by creation time; the random suffix keeps
// ids minted in the same millisecond distinct.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatUint(rand.Uint64(), 36)
}

// IsGeneratedID reports whether id has the shape produced by NewID.
func IsGeneratedID(id string) bool {
	return idPattern.MatchString(id)
}
