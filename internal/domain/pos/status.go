package pos

import (
	"encoding/json"
	"strings"
)

func normalizeStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func jsonUnmarshalString(s string, dst any) error {
	return json.Unmarshal([]byte(s), dst)
}
