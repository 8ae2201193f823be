package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <collection> [name]",
	Short: "Inspect persisted game documents",
	Long: `Lists the documents of a collection, or pretty-prints one document.
Reads the same store the bot uses (file-backed by default, redis when
redis_url is set).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		collection := args[0]
		if len(args) == 1 {
			names, err := st.List(collection)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Printf("No documents in collection %s\n", collection)
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		}

		doc, err := st.Get(collection, args[1], nil)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("no document %s/%s", collection, args[1])
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// openStore picks the configured document store backend.
func openStore() (store.Store, error) {
	if url := viper.GetString("redis_url"); url != "" {
		return store.NewRedisStore(url, "br4nd0n")
	}
	return store.NewFileStore(viper.GetString("data_dir")), nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
