package console

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
)

const (
	statusConnectFirst      = "Connect wallet first"
	statusOwnerOnly         = "Only the contract owner can issue credentials"
	statusInvalidRecipient  = "Invalid recipient address"
	statusURIRequired       = "Token URI is required"
	statusNoRecipients      = "No recipients"
	statusInvalidRecipients = "One or more recipient addresses are invalid"
	statusCountMismatch     = "Recipients and URIs must have the same count"
	statusAwaitingOne       = "Waiting for confirmation…"
	statusAwaitingBatch     = "Waiting for batch confirmation…"
)

var listSeparator = regexp.MustCompile(`[\n,]+`)

// SplitList splits a free-form block on commas and newlines, trimming entries
// and dropping empty ones.
func SplitList(text string) []string {
	parts := listSeparator.Split(text, -1)
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// IssueOne mints a credential for request.Recipient. The request is rejected
// without a contract call unless the session is connected, owns the contract,
// the recipient is a well-formed address and the URI is not blank.
func (c *Console) IssueOne(ctx context.Context, request IssueRequest) (*MintResult, error) {
	op := c.begin(OperationIssueOne)

	c.mu.Lock()
	c.state.LastIssue = nil
	c.mu.Unlock()

	session, err := c.issuerSession()
	if err != nil {
		return nil, op.reject(err)
	}
	recipient, ok := contract.NormalizeAddress(request.Recipient)
	if !ok {
		return nil, op.reject(newValidationError("recipient", statusInvalidRecipient, nil))
	}
	uri := strings.TrimSpace(request.MetadataURI)
	if uri == "" {
		return nil, op.reject(newValidationError("metadata_uri", statusURIRequired, nil))
	}

	transactor, err := c.bindTransactor(ctx, session)
	if err != nil {
		return nil, op.fail("Failed to issue credential", err)
	}

	op.transition(PhaseSubmitting, "")
	pending, err := transactor.IssueCredential(ctx, recipient, uri)
	if err != nil {
		return nil, op.fail("Failed to issue credential", err)
	}
	op.logger.Info().Str("tx_hash", pending.Hash()).Str("recipient", recipient.Hex()).Msg("issue transaction submitted")

	op.transition(PhaseAwaitingConfirmation, statusAwaitingOne)
	receipt, err := pending.Wait(ctx)
	if err != nil {
		return nil, op.fail("Failed to issue credential", err)
	}

	result := c.mintResult(op, session.ChainID, receipt, []string{recipient.Hex()}, []string{uri})

	c.mu.Lock()
	c.state.LastIssue = result.clone()
	c.mu.Unlock()

	status := "Issued!"
	if len(result.MintedTokenIDs) > 0 {
		status += " TokenId: " + joinTokenIDs(result.MintedTokenIDs)
	}
	op.complete(status + " View: " + result.ExplorerURL)
	return result, nil
}

// IssueBatch mints one credential per recipient in a single
// issueBatchCredentials transaction. Recipients and URIs pair by position.
func (c *Console) IssueBatch(ctx context.Context, request BatchIssueRequest) (*MintResult, error) {
	op := c.begin(OperationIssueBatch)

	c.mu.Lock()
	c.state.LastBatch = nil
	c.mu.Unlock()

	session, err := c.issuerSession()
	if err != nil {
		return nil, op.reject(err)
	}

	recipientEntries := SplitList(request.RecipientsText)
	uris := SplitList(request.URIsText)
	if len(recipientEntries) == 0 {
		return nil, op.reject(newValidationError("recipients", statusNoRecipients, nil))
	}
	recipients := make([]common.Address, 0, len(recipientEntries))
	for _, entry := range recipientEntries {
		recipient, ok := contract.NormalizeAddress(entry)
		if !ok {
			return nil, op.reject(newValidationError("recipients", statusInvalidRecipients, nil))
		}
		recipients = append(recipients, recipient)
	}
	if len(uris) != len(recipients) {
		return nil, op.reject(newValidationError("uris", statusCountMismatch, nil))
	}

	transactor, err := c.bindTransactor(ctx, session)
	if err != nil {
		return nil, op.fail("Failed to batch issue", err)
	}

	op.transition(PhaseSubmitting, "")
	pending, err := transactor.IssueBatchCredentials(ctx, recipients, uris)
	if err != nil {
		return nil, op.fail("Failed to batch issue", err)
	}
	op.logger.Info().Str("tx_hash", pending.Hash()).Int("recipients", len(recipients)).Msg("batch transaction submitted")

	op.transition(PhaseAwaitingConfirmation, statusAwaitingBatch)
	receipt, err := pending.Wait(ctx)
	if err != nil {
		return nil, op.fail("Failed to batch issue", err)
	}

	rendered := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		rendered = append(rendered, recipient.Hex())
	}
	result := c.mintResult(op, session.ChainID, receipt, rendered, uris)

	c.mu.Lock()
	c.state.LastBatch = result.clone()
	c.mu.Unlock()

	op.complete("Batch issued! TokenIds: " + joinTokenIDs(result.MintedTokenIDs) + " View: " + result.ExplorerURL)
	return result, nil
}

func (c *Console) issuerSession() (Session, error) {
	c.mu.RLock()
	session := c.state.Session
	c.mu.RUnlock()

	if !session.Connected() {
		return session, newValidationError("session", statusConnectFirst, ErrNotConnected)
	}
	if !session.IsOwner {
		return session, newValidationError("session", statusOwnerOnly, ErrNotOwner)
	}
	return session, nil
}

func (c *Console) bindTransactor(ctx context.Context, session Session) (contract.Transactor, error) {
	if c.transactor == nil {
		return nil, ErrNoTransactor
	}
	transactor, err := c.transactor(ctx, common.HexToAddress(session.ConnectedAddress), session.ChainID)
	if err != nil {
		return nil, fmt.Errorf("bind transactor: %w", err)
	}
	return transactor, nil
}

func (c *Console) mintResult(
	op *operation,
	chainID uint64,
	receipt *contract.Receipt,
	recipients []string,
	uris []string,
) *MintResult {
	ids := contract.MintedTokenIDs(c.contractAddress, receipt.Logs)
	c.metrics.observeMinted(len(ids))
	op.logger.Info().
		Str("tx_hash", receipt.TransactionHash).
		Str("token_ids", joinTokenIDs(ids)).
		Msg("issue transaction confirmed")

	return &MintResult{
		OperationID:     op.id,
		TransactionHash: receipt.TransactionHash,
		MintedTokenIDs:  ids,
		ExplorerURL:     c.explorerTxURL(chainID, receipt.TransactionHash),
		Recipients:      recipients,
		MetadataURIs:    append([]string(nil), uris...),
	}
}

func joinTokenIDs(ids []*big.Int) string {
	rendered := make([]string, 0, len(ids))
	for _, id := range ids {
		rendered = append(rendered, id.String())
	}
	return strings.Join(rendered, ", ")
}
