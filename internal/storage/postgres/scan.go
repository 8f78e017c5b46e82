package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"drip/pkg/domain"
	"drip/pkg/platform/sentinel"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// addressField scans a base58 TEXT column into an Address.
type addressField struct {
	dst *domain.Address
}

func (f addressField) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported address column type %T", src)
	}
	addr, err := domain.ParseAddress(s)
	if err != nil {
		return err
	}
	*f.dst = addr
	return nil
}

// amountField scans a NUMERIC(20,0) column, read as text, into a uint64.
type amountField struct {
	dst *uint64
}

func (f amountField) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount %d", v)
		}
		*f.dst = uint64(v)
		return nil
	default:
		return fmt.Errorf("unsupported amount column type %T", src)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	*f.dst = n
	return nil
}

func addr(dst *domain.Address) addressField { return addressField{dst: dst} }

func amount(dst *uint64) amountField { return amountField{dst: dst} }

func formatAmount(n uint64) string { return strconv.FormatUint(n, 10) }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return err
}
