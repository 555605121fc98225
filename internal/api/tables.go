package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// TableStatus is the occupancy of a table.
type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
)

// Table is a physical table that carries a QR code.
type Table struct {
	ID     string      `json:"_id"`
	Number int         `json:"number"`
	QRCode string      `json:"qrCode,omitempty"`
	Status TableStatus `json:"status"`
}

type rawTable struct {
	ID     string          `json:"_id"`
	AltID  string          `json:"id"`
	Number json.RawMessage `json:"number"`
	QRCode string          `json:"qrCode"`
	Status string          `json:"status"`
}

type tableEnvelope struct {
	Table *rawTable `json:"table"`
	Data  *rawTable `json:"data"`
}

// GetTable fetches a table. The backend may answer {table}, {data} or the
// bare document.
func (c *Client) GetTable(ctx context.Context, tableID string) (*Table, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return nil, fmt.Errorf("get table: %w", ErrMissingID)
	}

	var raw json.RawMessage
	if err := c.get(ctx, "get_table", "/tables/"+url.PathEscape(tableID), nil, &raw); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
		}
		return nil, err
	}

	rt, err := unwrapTable(raw)
	if err != nil {
		return nil, err
	}

	t := &Table{
		ID:     firstNonEmpty(rt.ID, rt.AltID, tableID),
		Number: parseTableNumber(rt.Number),
		QRCode: rt.QRCode,
		Status: normalizeTableStatus(rt.Status),
	}
	return t, nil
}

func unwrapTable(raw json.RawMessage) (*rawTable, error) {
	var env tableEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: table: %v", ErrUnexpectedResponse, err)
	}
	if env.Table != nil {
		return env.Table, nil
	}
	if env.Data != nil {
		return env.Data, nil
	}
	var flat rawTable
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("%w: table: %v", ErrUnexpectedResponse, err)
	}
	return &flat, nil
}

func parseTableNumber(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}

func normalizeTableStatus(s string) TableStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "occupied", "ocupada", "busy":
		return TableOccupied
	default:
		return TableFree
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
