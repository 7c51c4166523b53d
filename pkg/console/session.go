package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
	"github.com/verifychain/credentials-sdk-go/pkg/wallet"
)

const (
	statusProviderMissing = "Wallet provider not detected"
	statusConnectFailed   = "Failed to connect wallet"
	statusOwnerFailed     = "Error fetching contract owner"
)

// Connect requests account access from the provider, records the first
// account and the active chain, then refreshes the contract owner. A failed
// owner read does not fail the connection.
func (c *Console) Connect(ctx context.Context) (Session, error) {
	if c.provider == nil {
		c.setStatus(statusProviderMissing)
		return c.Session(), ErrNoProvider
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = wallet.ErrNoAccounts
	}
	if err != nil {
		c.setStatus(statusConnectFailed + ": " + err.Error())
		c.logger.Warn().Err(err).Msg("wallet connection failed")
		return c.Session(), fmt.Errorf("request accounts: %w", err)
	}

	chainID, err := c.provider.ChainID(ctx)
	if err != nil {
		c.setStatus(statusConnectFailed + ": " + err.Error())
		c.logger.Warn().Err(err).Msg("failed to read wallet chain")
		return c.Session(), fmt.Errorf("read chain id: %w", err)
	}

	c.mu.Lock()
	c.state.Session.ConnectedAddress = accounts[0].Hex()
	c.state.Session.ChainID = chainID
	c.state.Session.IsOwner = isOwner(c.state.Session)
	c.state.Status = ""
	c.mu.Unlock()

	c.logger.Info().
		Str("account", accounts[0].Hex()).
		Uint64("chain_id", chainID).
		Msg("wallet connected")

	_ = c.RefreshOwner(ctx)
	return c.Session(), nil
}

// Disconnect forgets the connected account. It makes no provider call.
func (c *Console) Disconnect() {
	c.mu.Lock()
	c.state.Session.ConnectedAddress = ""
	c.state.Session.IsOwner = false
	c.state.Status = ""
	c.mu.Unlock()

	c.logger.Info().Msg("wallet disconnected")
}

// RefreshOwner reads owner() and recomputes IsOwner. On failure the owner is
// unknown and IsOwner is false.
func (c *Console) RefreshOwner(ctx context.Context) error {
	owner, err := c.caller.Owner(ctx)
	if err != nil {
		c.mu.Lock()
		c.state.Session.ContractOwner = ""
		c.state.Session.IsOwner = false
		c.state.Status = statusOwnerFailed
		c.mu.Unlock()

		c.logger.Warn().Err(err).Msg("failed to fetch contract owner")
		return fmt.Errorf("fetch contract owner: %w", err)
	}

	c.mu.Lock()
	c.state.Session.ContractOwner = owner.Hex()
	c.state.Session.IsOwner = isOwner(c.state.Session)
	c.mu.Unlock()

	c.logger.Debug().Str("owner", owner.Hex()).Msg("contract owner refreshed")
	return nil
}

// Run applies provider events until ctx is done or the provider closes its
// event channel.
func (c *Console) Run(ctx context.Context) error {
	if c.provider == nil {
		return ErrNoProvider
	}
	events := c.provider.Events()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ctx, event)
		}
	}
}

// HandleEvent applies one provider notification to the session. An empty
// accountsChanged event is a disconnect.
func (c *Console) HandleEvent(ctx context.Context, event wallet.Event) {
	switch event.Kind {
	case wallet.EventAccountsChanged:
		if len(event.Accounts) == 0 {
			c.Disconnect()
			return
		}
		c.setAccount(event.Accounts[0])
		_ = c.RefreshOwner(ctx)
	case wallet.EventChainChanged:
		c.mu.Lock()
		c.state.Session.ChainID = event.ChainID
		c.mu.Unlock()
		c.logger.Info().Uint64("chain_id", event.ChainID).Msg("wallet chain changed")
		_ = c.RefreshOwner(ctx)
	default:
		c.logger.Debug().Str("kind", string(event.Kind)).Msg("ignoring wallet event")
	}
}

func (c *Console) setAccount(account common.Address) {
	c.mu.Lock()
	c.state.Session.ConnectedAddress = account.Hex()
	c.state.Session.IsOwner = isOwner(c.state.Session)
	c.mu.Unlock()

	c.logger.Info().Str("account", account.Hex()).Msg("wallet account changed")
}

func isOwner(session Session) bool {
	return session.ConnectedAddress != "" && contract.SameAddress(session.ConnectedAddress, session.ContractOwner)
}
