package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/AeonDave/svxor/obf"
)

const (
	dateLayout  = "Jan _2 2006"
	clockLayout = "15:04:05"
)

// BuildInfo is the metadata hashed into every package's build key.
type BuildInfo struct {
	Date  string
	Clock string
	// Nonce separates builds that land in the same second. Empty in
	// reproducible mode.
	Nonce string
}

// NewBuildInfo stamps the current build. Reproducible builds take their
// timestamp from SOURCE_DATE_EPOCH, or the Unix epoch when it is unset.
func NewBuildInfo(reproducible bool) (BuildInfo, error) {
	if !reproducible {
		return stampBuild(time.Now(), uuid.NewString()), nil
	}
	now := time.Unix(0, 0)
	if epoch := os.Getenv("SOURCE_DATE_EPOCH"); epoch != "" {
		sec, err := strconv.ParseInt(epoch, 10, 64)
		if err != nil {
			return BuildInfo{}, fmt.Errorf("invalid SOURCE_DATE_EPOCH %q: %w", epoch, err)
		}
		now = time.Unix(sec, 0)
	}
	return stampBuild(now.UTC(), ""), nil
}

func stampBuild(t time.Time, nonce string) BuildInfo {
	return BuildInfo{
		Date:  t.Format(dateLayout),
		Clock: t.Format(clockLayout),
		Nonce: nonce,
	}
}

// Key derives the build key for one source identity.
func (b BuildInfo) Key(source string) uint64 {
	if b.Nonce != "" {
		source += "#" + b.Nonce
	}
	return obf.DeriveBuildKey(b.Date, b.Clock, source)
}
