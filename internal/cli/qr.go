package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/verifychain/credentials-sdk-go/pkg/qrcode"
)

func newQRCmd(opts *options) *cobra.Command {
	var uri string
	var output string
	var size int
	var level string

	cmd := &cobra.Command{
		Use:   "qr [token-id]",
		Short: "Render the metadata URI of a credential as a QR code",
		Long: `Renders a QR code for the metadata URI of a credential, or for --uri.

Without --out the code is drawn in the terminal; with --out a PNG is written.`,
		Example: `  credconsole qr 7
  credconsole qr 7 --out credential-7.png --size 512
  credconsole qr --uri ipfs://bafy.../metadata.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := opts.resolveURI(cmd.Context(), uri, args)
			if err != nil {
				return err
			}

			parsedLevel, err := qrcode.ParseLevel(level)
			if err != nil {
				return err
			}
			options := qrcode.Options{Size: size, Level: parsedLevel}

			if output == "" {
				rendered, err := qrcode.Terminal(content, options)
				if err != nil {
					return err
				}
				fmt.Fprint(opts.out, rendered)
				fmt.Fprintln(opts.out, content)
				return nil
			}

			payload, err := qrcode.PNG(content, options)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, payload, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			opts.logger.Info().Str("file", output).Int("bytes", len(payload)).Msg("QR code written")
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Encode this URI instead of a token's metadata URI")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Write a PNG to this path")
	cmd.Flags().IntVar(&size, "size", qrcode.DefaultSize, "PNG size in pixels")
	cmd.Flags().StringVar(&level, "level", "M", "Error correction level (L, M, Q, H)")
	return cmd
}

// resolveURI returns uri when set, otherwise the metadata URI of the token
// named by args.
func (o *options) resolveURI(ctx context.Context, uri string, args []string) (string, error) {
	if uri != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("pass either a token id or --uri, not both")
		}
		return uri, nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("a token id or --uri is required")
	}

	rt, err := o.buildRuntime(ctx)
	if err != nil {
		return "", err
	}
	defer rt.Close()

	record, err := rt.console.LookupOne(ctx, args[0])
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", fmt.Errorf("a token id or --uri is required")
	}
	return record.MetadataURI, nil
}
