package main

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.aimuz.me/voxlore/enhance"
	"go.aimuz.me/voxlore/secret"
	"go.aimuz.me/voxlore/stt"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys in the OS keychain",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show which providers have a stored key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := secret.New()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tKEY")
		for _, p := range keyProviders() {
			status := "-"
			switch {
			case p == stt.ProviderLocal || enhance.IsLocal(p):
				status = "not needed"
			default:
				ok, err := store.Exists(p)
				if err != nil {
					return err
				}
				if ok {
					status = "stored"
				}
			}
			fmt.Fprintf(w, "%s\t%s\n", p, status)
		}
		return w.Flush()
	},
}

var keysSetCmd = &cobra.Command{
	Use:   "set <provider> [key]",
	Short: "Store an API key. The key is read from stdin when omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]
		if !slices.Contains(keyProviders(), provider) {
			return fmt.Errorf("unknown provider %q", provider)
		}
		var key string
		if len(args) == 2 {
			key = args[1]
		} else {
			fmt.Fprintf(os.Stderr, "API key for %s: ", provider)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			key = line
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("empty key; use 'voxctl keys delete %s' to remove it", provider)
		}
		if err := secret.New().Set(provider, key); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Stored key for %s\n", provider)
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return secret.New().Delete(args[0])
	},
}

// keyProviders lists every provider name a key can be stored under.
// openai_transcribe shares the openai key.
func keyProviders() []string {
	var out []string
	for _, p := range append(slices.Clone(stt.Providers), enhance.Providers...) {
		if p == stt.ProviderOpenAITranscribe || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func init() {
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysDeleteCmd)
}
