package docpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ToInt64E converts v to an int64. Strings are read as base-10 integers, so
// "0123" is 123 and "0x10" is an error; other values go through cast.
func ToInt64E(v any) (int64, error) {
	switch t := v.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unable to cast %q to int64: %w", t, err)
		}
		return i, nil
	case []byte:
		return ToInt64E(string(t))
	default:
		return cast.ToInt64E(v)
	}
}

// ToIntE is ToInt64E for int.
func ToIntE(v any) (int, error) {
	i, err := ToInt64E(v)
	if err != nil {
		return 0, err
	}
	if int64(int(i)) != i {
		return 0, fmt.Errorf("unable to cast %d to int: out of range", i)
	}
	return int(i), nil
}
