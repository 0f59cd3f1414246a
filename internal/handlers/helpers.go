package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// parseDate parses a "2006-01-02" value; empty means nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseClock validates a "15:04" value; empty means nil.
func parseClock(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return nil, err
	}
	return &s, nil
}
