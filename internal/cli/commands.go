package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/verifychain/credentials-sdk-go/pkg/console"
)

func newOwnerCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "owner",
		Short: "Show the contract owner and whether the configured account owns it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			session, err := rt.console.Connect(cmd.Context())
			if err != nil {
				opts.logger.Debug().Err(err).Msg("no wallet session; reading owner only")
				if err := rt.console.RefreshOwner(cmd.Context()); err != nil {
					return err
				}
				session = rt.console.Session()
			}

			fmt.Fprintf(opts.out, "Contract: %s\n", rt.console.State().ContractURL)
			fmt.Fprintf(opts.out, "Owner:    %s\n", session.ContractOwner)
			if session.Connected() {
				fmt.Fprintf(opts.out, "Account:  %s (%s)\n", session.ConnectedAddress, session.OwnerBadge())
			}
			return nil
		},
	}
}

func newIssueCmd(opts *options) *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "issue <recipient>",
		Short: "Issue one credential",
		Example: `  credconsole issue 0x2222222222222222222222222222222222222222 \
    --uri ipfs://bafy.../metadata.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.console.Connect(cmd.Context()); err != nil {
				return err
			}
			result, err := rt.console.IssueOne(cmd.Context(), console.IssueRequest{
				Recipient:   args[0],
				MetadataURI: uri,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.out, rt.console.Status())
			return printMint(opts.out, result)
		},
	}

	cmd.Flags().StringVarP(&uri, "uri", "u", "", "Metadata URI of the credential")
	return cmd
}

func newIssueBatchCmd(opts *options) *cobra.Command {
	var recipients string
	var uris string

	cmd := &cobra.Command{
		Use:   "issue-batch",
		Short: "Issue credentials to several recipients in one transaction",
		Long: `Recipients and URIs are lists separated by commas or newlines. The two lists
must have the same length; the n-th recipient receives the n-th URI.`,
		Example: `  credconsole issue-batch \
    --recipients 0x2222...,0x3333... \
    --uris ipfs://a.json,ipfs://b.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.console.Connect(cmd.Context()); err != nil {
				return err
			}
			result, err := rt.console.IssueBatch(cmd.Context(), console.BatchIssueRequest{
				RecipientsText: recipients,
				URIsText:       uris,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.out, rt.console.Status())
			return printMint(opts.out, result)
		},
	}

	cmd.Flags().StringVar(&recipients, "recipients", "", "Recipient addresses")
	cmd.Flags().StringVar(&uris, "uris", "", "Metadata URIs, paired with recipients by position")
	return cmd
}

func newLookupCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup <token-id>",
		Short: "Show the holder and metadata URI of a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			record, err := rt.console.LookupOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if record == nil {
				return nil
			}
			if asJSON {
				return writeJSON(opts.out, record)
			}
			printRecords(opts.out, []console.TokenRecord{*record})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var from string
	var to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List existing credentials in a token id range",
		Example: `  credconsole list --from 1 --to 25`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.console.ListRange(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(opts.out, result)
			}
			if len(result.Records) == 0 {
				fmt.Fprintln(opts.out, rt.console.Status())
				return nil
			}
			printRecords(opts.out, result.Records)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "1", "First token id")
	cmd.Flags().StringVar(&to, "to", "25", "Last token id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printMint(w io.Writer, result *console.MintResult) error {
	for index, id := range result.MintedTokenIDs {
		line := id.String()
		if index < len(result.Recipients) {
			line += "\t" + result.Recipients[index]
		}
		if index < len(result.MetadataURIs) {
			line += "\t" + result.MetadataURIs[index]
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func printRecords(w io.Writer, records []console.TokenRecord) {
	for _, record := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", record.TokenID, record.Owner, record.MetadataURI)
	}
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
