package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pthm/hxstore"
	"github.com/pthm/hxstore/internal/demo"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the demo domains and their actions",
	Run: func(cmd *cobra.Command, args []string) {
		printModels(cmd.OutOrStdout(), demo.Models())
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

// printModels writes one line per domain: the domain followed by its action types.
func printModels(w io.Writer, models hxstore.Models) {
	for _, domain := range models.Domains() {
		var types []string
		for _, name := range models.Actions(domain) {
			types = append(types, hxstore.Action{Domain: domain, Name: name}.Type())
		}
		fmt.Fprintf(w, "%-10s %s\n", domain, strings.Join(types, " "))
	}
}
