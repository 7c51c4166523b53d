package cli

import (
	"github.com/spf13/cobra"
)

func newMetadataCmd(opts *options) *cobra.Command {
	var uri string
	var raw bool

	cmd := &cobra.Command{
		Use:   "metadata [token-id]",
		Short: "Fetch and print the metadata document of a credential",
		Long: `Resolves the metadata URI of a credential, or --uri, and prints the document.

data: URIs are decoded in place, ipfs:// URIs are fetched through the
configured gateway and http(s) URIs are fetched directly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := opts.resolveURI(cmd.Context(), uri, args)
			if err != nil {
				return err
			}

			config, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			resolver, err := opts.newResolver(config)
			if err != nil {
				return err
			}

			if raw {
				payload, err := resolver.Fetch(cmd.Context(), target)
				if err != nil {
					return err
				}
				_, err = opts.out.Write(payload)
				return err
			}

			document, err := resolver.Resolve(cmd.Context(), target)
			if err != nil {
				return err
			}
			return writeJSON(opts.out, document)
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Resolve this URI instead of a token's metadata URI")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the fetched bytes unparsed")
	return cmd
}
