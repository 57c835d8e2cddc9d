package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that name can be joined to a styles/ or
// templates/ directory as a bare file stem. Names are given without their
// .css or .html extension, so a dot is refused along with path separators
// and NUL bytes. Returns ErrInvalidAssetName otherwise.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
