package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/gin-gonic/gin"
)

func parseIntOrDefault(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	return value
}

// parseTime accepts a calendar date (midnight UTC) or an RFC 3339 instant.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", domain.ErrInvalidInput, raw)
	}
	return t.UTC(), nil
}

func parseInterval(start, end string) (domain.Interval, error) {
	s, err := parseTime(start)
	if err != nil {
		return domain.Interval{}, err
	}
	e, err := parseTime(end)
	if err != nil {
		return domain.Interval{}, err
	}
	return domain.NewInterval(s, e), nil
}

func parseListFilter(c *gin.Context) (domain.ListFilter, error) {
	filter := domain.ListFilter{
		Page:  parseIntOrDefault(c.Query("page"), 1),
		Limit: parseIntOrDefault(c.Query("limit"), 50),
	}
	raw := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	if raw != "" && raw != "ALL" {
		status := domain.ModerationStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, raw)
		}
		filter.Status = &status
	}
	return filter.Normalize(), nil
}

func parseKind(c *gin.Context) (domain.EntityKind, error) {
	kind := domain.EntityKind(c.Param("kind"))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown entity kind %q", domain.ErrNotFound, kind)
	}
	return kind, nil
}
