package atlas

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/fury3-assets/internal/logger"
)

// ErrBadManifest is returned when a texture manifest has no valid count line.
var ErrBadManifest = errors.New("invalid texture manifest")

// ReadManifest parses a texture manifest: a count line followed by one
// texture file name per line. Blank lines are dropped. A count that disagrees
// with the listed names is only a warning; the listed names win.
func ReadManifest(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		return nil, fmt.Errorf("%w: empty", ErrBadManifest)
	}
	countLine := strings.TrimSpace(sc.Text())
	count, err := strconv.Atoi(countLine)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: bad count line %q", ErrBadManifest, countLine)
	}

	names := make([]string, 0, min(count, 1024))
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if count != len(names) {
		logger.Warn("texture manifest count mismatch",
			zap.Int("declared", count),
			zap.Int("listed", len(names)))
	}

	return names, nil
}
