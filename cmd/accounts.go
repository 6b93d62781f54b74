package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dtroode/chatdemo-server/internal/config"
	"github.com/dtroode/chatdemo-server/internal/seed"
)

func runAccounts(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS")
	for _, u := range seed.Users() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nPassword for every account: %s\nAuto-reply contact: %s\n",
		cfg.Demo.Password, cfg.Demo.AutoReplyContact)
	return nil
}
