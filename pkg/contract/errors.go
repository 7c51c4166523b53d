package contract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/verifychain/credentials-sdk-go/pkg/mirror"
)

var (
	// ErrNoData is returned when a read call yields an empty result, which
	// usually means nothing is deployed at the bound address.
	ErrNoData = errors.New("contract returned no data")

	// ErrNoSigner is returned by write calls on a binding without a signer.
	ErrNoSigner = errors.New("contract binding has no signer")

	ErrTokenNotFound = errors.New("token does not exist")
)

// RevertError is a failed call or transaction with a decoded reason.
type RevertError struct {
	Reason string
	Data   []byte
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// Reason returns the most specific human-readable cause of err: a decoded
// revert reason when one is available, otherwise the error message.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var revertErr *RevertError
	if errors.As(err, &revertErr) && revertErr.Reason != "" {
		return revertErr.Reason
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if encoded, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(encoded); decodeErr == nil {
				if reason, decoded := DecodeRevert(raw); decoded {
					return reason
				}
			}
		}
	}

	var callErr *mirror.CallError
	if errors.As(err, &callErr) {
		if raw, decodeErr := hexutil.Decode(callErr.Data); decodeErr == nil {
			if reason, decoded := DecodeRevert(raw); decoded {
				return reason
			}
		}
		if callErr.Detail != "" {
			return callErr.Detail
		}
	}

	return err.Error()
}

// DecodeRevert decodes Error(string), Panic(uint256) and the custom errors
// declared by the contract ABI.
func DecodeRevert(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}

	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason, true
	}

	parsed, err := DefaultABI()
	if err != nil {
		return "", false
	}
	for name, definition := range parsed.Errors {
		if !bytes.Equal(definition.ID[:4], data[:4]) {
			continue
		}
		values, unpackErr := definition.Unpack(data)
		if unpackErr != nil {
			return name, true
		}
		return formatCustomError(name, values), true
	}

	return "", false
}

func formatCustomError(name string, values any) string {
	arguments, ok := values.([]any)
	if !ok || len(arguments) == 0 {
		return name
	}
	rendered := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		rendered = append(rendered, fmt.Sprint(argument))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(rendered, ", "))
}

// IsTokenNotFound reports whether err signals a token id that was never
// minted.
func IsTokenNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenNotFound) {
		return true
	}
	reason := strings.ToLower(Reason(err))
	return strings.Contains(reason, "erc721nonexistenttoken") ||
		strings.Contains(reason, "nonexistent token") ||
		strings.Contains(reason, "invalid token id")
}
