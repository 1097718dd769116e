package store

import (
	"encoding/base64"
	"strings"

	"github.com/rcliao/mcp-memory/internal/model"
)

// cursor is the sort key of the last row of a page.
type cursor struct {
	UpdatedAt string
	ID        string
}

func encodeCursor(m model.Memory) string {
	raw := formatTime(m.UpdatedAt) + "|" + m.ID
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// decodeCursor reports ok=false for anything that is not base64 of a
// timestamp, '|' and a non-empty id; such cursors are ignored rather than
// rejected. The timestamp never contains '|', so ids may.
func decodeCursor(s string) (cursor, bool) {
	if s == "" {
		return cursor{}, false
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return cursor{}, false
	}
	updatedAt, id, ok := strings.Cut(string(b), "|")
	if !ok || updatedAt == "" || id == "" {
		return cursor{}, false
	}
	return cursor{UpdatedAt: updatedAt, ID: id}, true
}
