package mirror

// ContractCallRequest is the body of POST /api/v1/contracts/call.
type ContractCallRequest struct {
	Block    string `json:"block,omitempty"`
	Data     string `json:"data"`
	Estimate bool   `json:"estimate"`
	From     string `json:"from,omitempty"`
	Gas      uint64 `json:"gas,omitempty"`
	To       string `json:"to"`
}

type contractCallResponse struct {
	Result string `json:"result"`
}

// ContractResult is the outcome of a contract transaction as indexed by the
// mirror node.
type ContractResult struct {
	Address      string        `json:"address"`
	BlockNumber  uint64        `json:"block_number"`
	ErrorMessage string        `json:"error_message"`
	From         string        `json:"from"`
	Hash         string        `json:"hash"`
	Logs         []ContractLog `json:"logs"`
	Result       string        `json:"result"`
	Status       string        `json:"status"`
	Timestamp    string        `json:"timestamp"`
	To           string        `json:"to"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r ContractResult) Succeeded() bool {
	return r.Result == "SUCCESS" || r.Status == "0x1"
}

type ContractLog struct {
	Address    string   `json:"address"`
	ContractID string   `json:"contract_id"`
	Data       string   `json:"data"`
	Index      int      `json:"index"`
	Topics     []string `json:"topics"`
}

type statusMessage struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Data    string `json:"data"`
}

type errorResponse struct {
	Status struct {
		Messages []statusMessage `json:"messages"`
	} `json:"_status"`
}
