package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/verifychain/credentials-sdk-go/pkg/console"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
	"github.com/verifychain/credentials-sdk-go/pkg/metadata"
	"github.com/verifychain/credentials-sdk-go/pkg/shared"
	"github.com/verifychain/credentials-sdk-go/pkg/wallet"
)

// runtime is a console wired to the configured backend.
type runtime struct {
	config   shared.Config
	console  *console.Console
	registry *prometheus.Registry
	closers  []func()
}

func (r *runtime) Close() {
	for index := len(r.closers) - 1; index >= 0; index-- {
		r.closers[index]()
	}
}

func (o *options) loadConfig() (shared.Config, shared.OperatorConfig, error) {
	config, err := shared.LoadConfig(o.configPath)
	if err != nil {
		return shared.Config{}, shared.OperatorConfig{}, err
	}
	operator, err := shared.OperatorConfigFromEnv()
	if err != nil {
		return shared.Config{}, shared.OperatorConfig{}, err
	}
	config.ApplyOperator(operator)
	if err := config.Validate(); err != nil {
		return shared.Config{}, shared.OperatorConfig{}, err
	}

	if o.logLevel == "" && os.Getenv("LOG_LEVEL") == "" && config.LogLevel != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(config.LogLevel))
		if err != nil {
			return shared.Config{}, shared.OperatorConfig{}, fmt.Errorf("invalid log_level: %w", err)
		}
		o.logger = o.logger.Level(level)
	}
	return config, operator, nil
}

func (o *options) newResolver(config shared.Config) (*metadata.Resolver, error) {
	return metadata.NewResolver(metadata.Config{IPFSGateway: config.IPFSGateway})
}

func (o *options) buildRuntime(ctx context.Context) (*runtime, error) {
	config, operator, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	var parsedABI *abi.ABI
	if config.ABIPath != "" {
		loaded, err := contract.LoadABI(config.ABIPath)
		if err != nil {
			return nil, err
		}
		parsedABI = loaded
	}

	registry := prometheus.NewRegistry()
	metrics, err := console.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	result := &runtime{config: config, registry: registry}
	consoleConfig := console.Config{
		ContractAddress: common.HexToAddress(config.ContractAddress),
		Chains:          config.ChainRegistry(),
		MaxRangeSpan:    config.MaxRangeSpan,
		Logger:          &o.logger,
		Metrics:         metrics,
	}

	switch config.BackendName() {
	case shared.BackendHedera:
		if err := o.bindHedera(&consoleConfig, config, operator, parsedABI); err != nil {
			return nil, err
		}
	default:
		closer, err := o.bindEVM(ctx, &consoleConfig, config, operator, parsedABI)
		if err != nil {
			return nil, err
		}
		result.closers = append(result.closers, closer)
	}

	credentialConsole, err := console.New(consoleConfig)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.console = credentialConsole
	return result, nil
}

func (o *options) bindEVM(
	ctx context.Context,
	consoleConfig *console.Config,
	config shared.Config,
	operator shared.OperatorConfig,
	parsedABI *abi.ABI,
) (func(), error) {
	if strings.TrimSpace(config.RPCURL) == "" {
		return nil, fmt.Errorf("rpc_url or VERIFYCHAIN_RPC_URL is required for the %s backend", shared.BackendEVM)
	}

	ethClient, err := ethclient.DialContext(ctx, config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", config.RPCURL, err)
	}

	client, err := contract.NewEVMClient(contract.EVMConfig{
		Address: consoleConfig.ContractAddress,
		Backend: ethClient,
		ABI:     parsedABI,
	})
	if err != nil {
		ethClient.Close()
		return nil, err
	}
	consoleConfig.Caller = client

	if operator.PrivateKey == "" {
		o.logger.Debug().Msg("no private key configured; console is read-only")
		return ethClient.Close, nil
	}

	chainID := config.ChainID
	if chainID == 0 {
		remote, err := ethClient.ChainID(ctx)
		if err != nil {
			ethClient.Close()
			return nil, fmt.Errorf("failed to read chain ID: %w", err)
		}
		chainID = remote.Uint64()
	}

	provider, err := wallet.NewKeyedProviderFromHex(chainID, operator.PrivateKey)
	if err != nil {
		ethClient.Close()
		return nil, err
	}
	consoleConfig.Provider = provider
	consoleConfig.Transactor = console.SignerTransactor(client, provider)

	return func() {
		provider.Close()
		ethClient.Close()
	}, nil
}

func (o *options) bindHedera(
	consoleConfig *console.Config,
	config shared.Config,
	operator shared.OperatorConfig,
	parsedABI *abi.ABI,
) error {
	client, err := contract.NewHederaClient(contract.HederaConfig{
		Network:            operator.HederaNetwork,
		OperatorAccountID:  operator.HederaAccountID,
		OperatorPrivateKey: operator.HederaPrivateKey,
		ContractAddress:    config.ContractAddress,
		ABI:                parsedABI,
		MirrorBaseURL:      config.Mirror.BaseURL,
		MirrorAPIKey:       config.Mirror.APIKey,
	})
	if err != nil {
		return err
	}
	consoleConfig.Caller = client

	if !operator.HasHederaOperator() {
		o.logger.Debug().Msg("no Hedera operator configured; console is read-only")
		return nil
	}
	chainID := config.ChainID
	if chainID == 0 {
		chainID = shared.ChainIDHederaTestnet
		if operator.HederaNetwork == shared.NetworkMainnet {
			chainID = shared.ChainIDHederaMainnet
		}
	}

	// The session identity is the operator's EVM alias, which only ECDSA
	// operators have. Issuing requires a session, so without one the console
	// stays read-only.
	provider, err := wallet.NewKeyedProviderFromHex(chainID, operator.HederaPrivateKey)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Hedera operator key is not ECDSA; console is read-only")
		return nil
	}
	consoleConfig.Provider = provider
	consoleConfig.Transactor = console.StaticTransactor(client)
	return nil
}
