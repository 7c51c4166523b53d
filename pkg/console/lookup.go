package console

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

const (
	statusInvalidRange   = "Enter a valid tokenId range (e.g., 1 to 25)"
	statusInvalidTokenID = "Enter a valid tokenId"
	statusNoTokens       = "No tokens found in that range."
)

// maxRangeBound keeps range ids exactly representable as float64 and uint64.
const maxRangeBound = 1 << 53

// ParseTokenID parses a decimal or 0x-prefixed hexadecimal token id.
func ParseTokenID(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	base := 10
	digits := trimmed
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		base = 16
		digits = trimmed[2:]
	}
	if digits == "" || strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		return nil, fmt.Errorf("invalid token id %q", value)
	}
	id, ok := new(big.Int).SetString(digits, base)
	if !ok || id.BitLen() > 256 {
		return nil, fmt.Errorf("invalid token id %q", value)
	}
	return id, nil
}

// LookupOne reads the holder and metadata URI of tokenID. Both reads run
// concurrently. A blank tokenID only clears the previous result.
func (c *Console) LookupOne(ctx context.Context, tokenID string) (*TokenRecord, error) {
	op := c.begin(OperationLookupOne)

	c.mu.Lock()
	c.state.Lookup = nil
	c.mu.Unlock()

	if strings.TrimSpace(tokenID) == "" {
		op.complete("")
		return nil, nil
	}

	id, err := ParseTokenID(tokenID)
	if err != nil {
		return nil, op.reject(newValidationError("token_id", statusInvalidTokenID, err))
	}

	op.transition(PhaseReading, "")
	record, err := c.readToken(ctx, id)
	if err != nil {
		return nil, op.fail("Lookup failed", err)
	}

	c.mu.Lock()
	stored := *record
	c.state.Lookup = &stored
	c.mu.Unlock()

	op.complete("")
	return record, nil
}

// ReadToken reads the holder and metadata URI of tokenID without touching the
// console state or status line.
func (c *Console) ReadToken(ctx context.Context, tokenID string) (*TokenRecord, error) {
	id, err := ParseTokenID(tokenID)
	if err != nil {
		return nil, newValidationError("token_id", statusInvalidTokenID, err)
	}
	return c.readToken(ctx, id)
}

// ListRange reads every token id in [from, to] one at a time. Ids whose reads
// fail are skipped. Both bounds are parsed as numbers; from must be at least
// 1 and to at least from.
//
// A range wider than MaxRangeSpan ids is rejected before any read. The
// browser console this replaces scanned any range; the cap is local to this
// package and configurable through Config.MaxRangeSpan.
func (c *Console) ListRange(ctx context.Context, from string, to string) (*RangeResult, error) {
	op := c.begin(OperationListRange)

	c.mu.Lock()
	c.state.Listed = []TokenRecord{}
	c.mu.Unlock()

	first, last, err := parseRange(from, to)
	if err != nil {
		return nil, op.reject(newValidationError("range", statusInvalidRange, err))
	}
	if first <= last && last-first+1 > c.maxRangeSpan {
		return nil, op.reject(newValidationError(
			"range",
			fmt.Sprintf("Range too large: list at most %d tokens at a time", c.maxRangeSpan),
			nil,
		))
	}

	op.transition(PhaseReading, "")
	result := &RangeResult{
		OperationID: op.id,
		From:        first,
		To:          last,
		Records:     []TokenRecord{},
	}
	for id := first; id <= last; id++ {
		if err := ctx.Err(); err != nil {
			return nil, op.fail("List failed", err)
		}
		record, readErr := c.readToken(ctx, new(big.Int).SetUint64(id))
		if readErr != nil {
			op.logger.Debug().Err(readErr).Uint64("token_id", id).Msg("skipping token")
			continue
		}
		result.Records = append(result.Records, *record)
	}

	c.mu.Lock()
	c.state.Listed = append([]TokenRecord{}, result.Records...)
	c.mu.Unlock()

	status := ""
	if len(result.Records) == 0 {
		status = statusNoTokens
	}
	op.complete(status)
	return result, nil
}

// parseRange returns the integer ids to scan. A fractional lower bound
// matches no token, so it yields an empty range (first > last).
func parseRange(from string, to string) (uint64, uint64, error) {
	lower, err := parseBound(from)
	if err != nil {
		return 0, 0, err
	}
	upper, err := parseBound(to)
	if err != nil {
		return 0, 0, err
	}
	if lower < 1 {
		return 0, 0, fmt.Errorf("range start %v is below 1", lower)
	}
	if upper < lower {
		return 0, 0, fmt.Errorf("range end %v is below start %v", upper, lower)
	}
	if upper > maxRangeBound {
		return 0, 0, fmt.Errorf("range end %v is too large", upper)
	}
	if lower != math.Trunc(lower) {
		return 1, 0, nil
	}
	return uint64(lower), uint64(math.Floor(upper)), nil
}

func parseBound(value string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid range bound %q", value)
	}
	if math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return 0, fmt.Errorf("range bound %q is not finite", value)
	}
	return parsed, nil
}

func (c *Console) readToken(ctx context.Context, id *big.Int) (*TokenRecord, error) {
	var (
		holder common.Address
		uri    string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		value, err := c.caller.OwnerOf(groupCtx, id)
		if err != nil {
			return fmt.Errorf("ownerOf(%s): %w", id, err)
		}
		holder = value
		return nil
	})
	group.Go(func() error {
		value, err := c.caller.TokenURI(groupCtx, id)
		if err != nil {
			return fmt.Errorf("tokenURI(%s): %w", id, err)
		}
		uri = value
		return nil
	})
	if err := group.Wait(); err != nil {
		c.metrics.observeRead(false)
		return nil, err
	}

	c.metrics.observeRead(true)
	return &TokenRecord{
		TokenID:     new(big.Int).Set(id),
		Owner:       holder.Hex(),
		MetadataURI: uri,
	}, nil
}
