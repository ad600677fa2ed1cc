package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rheehot/autokernel/pkg/kconfig"
)

// symbolInfo is the metadata printed per searched symbol. Dependencies keep
// the oracle's order, which is satisfaction order.
type symbolInfo struct {
	Symbol  string    `json:"symbol"`
	Type    string    `json:"type"`
	Value   string    `json:"value"`
	Depends []depInfo `json:"depends,omitempty"`
}

type depInfo struct {
	Symbol string `json:"symbol"`
	Value  string `json:"value"`
}

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search SYMBOL...",
		Short: "Show symbol metadata from the snapshot",
		Long: `Look up the given symbols in the snapshot and print their type, current
value and the dependency values they require.`,
		Example: `  # Look up one symbol
  autokernel search WLAN

  # The CONFIG_ prefix is accepted and stripped
  autokernel search CONFIG_NET CONFIG_INET`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}

			infos := make([]symbolInfo, 0, len(args))
			for _, arg := range args {
				name := strings.TrimPrefix(arg, "CONFIG_")
				sym, err := rt.oracle.Lookup(name)
				if err != nil {
					return err
				}
				info := symbolInfo{
					Symbol: sym.Name(),
					Type:   string(sym.Type()),
					Value:  rt.oracle.Value(sym),
				}
				for _, dep := range rt.oracle.RequiredDeps(sym) {
					want := "n"
					if dep.Required {
						want = "y"
					}
					info.Depends = append(info.Depends, depInfo{Symbol: dep.Symbol.Name(), Value: want})
				}
				infos = append(infos, info)
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			for _, info := range infos {
				fmt.Printf("CONFIG_%s\n", info.Symbol)
				fmt.Printf("  type:    %s\n", info.Type)
				fmt.Printf("  value:   %s\n", kconfig.FormatValue(info.Value))
				if len(info.Depends) > 0 {
					parts := make([]string, 0, len(info.Depends))
					for _, dep := range info.Depends {
						parts = append(parts, fmt.Sprintf("CONFIG_%s=%s", dep.Symbol, dep.Value))
					}
					fmt.Printf("  depends: %s\n", strings.Join(parts, ", "))
				}
				fmt.Println()
			}
			return nil
		},
	}

	return cmd
}
