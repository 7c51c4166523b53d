package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const TransferEventSignature = "Transfer(address,address,uint256)"

// TransferTopic is topic[0] of every Transfer log.
var TransferTopic = crypto.Keccak256Hash([]byte(TransferEventSignature))

// MintedTokenIDs returns, in log order, the token ids carried by Transfer logs
// emitted by contractAddress. The id is the third indexed topic. Entries
// without one are skipped.
func MintedTokenIDs(contractAddress common.Address, logs []Log) []*big.Int {
	ids := make([]*big.Int, 0, len(logs))
	for _, entry := range logs {
		if entry.Address != contractAddress {
			continue
		}
		if len(entry.Topics) == 0 || entry.Topics[0] != TransferTopic {
			continue
		}
		if len(entry.Topics) < 4 {
			continue
		}
		ids = append(ids, new(big.Int).SetBytes(entry.Topics[3].Bytes()))
	}
	return ids
}

func logsFromTypes(entries []*types.Log) []Log {
	logs := make([]Log, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		logs = append(logs, Log{
			Address: entry.Address,
			Topics:  append([]common.Hash(nil), entry.Topics...),
			Data:    append([]byte(nil), entry.Data...),
		})
	}
	return logs
}
