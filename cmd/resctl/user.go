package main

import (
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newUserCmd(get func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer users",
	}

	printMessage := func(cmd *cobra.Command, method, path string, q url.Values) error {
		var out struct {
			Message string `json:"message"`
		}
		if err := get().do(cmd.Context(), method, path, q, nil, &out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "login USERNAME",
			Short: "Look up a user and show their role",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := get().login(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome %s (id %d, %s)\n", s.Username, s.ID, s.Role)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add USERNAME FIRST_NAME ROLE",
			Short: "Register a user; ROLE is scheduler, customer or admin",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				q := url.Values{"username": {args[0]}, "first_name": {args[1]}, "role": {args[2]}}
				return printMessage(cmd, http.MethodPost, "/reservation/user/adduser", q)
			},
		},
		&cobra.Command{
			Use:   "role USERNAME ROLE",
			Short: "Change a user's role",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				q := url.Values{"username": {args[0]}, "role": {args[1]}}
				return printMessage(cmd, http.MethodPut, "/reservation/user/changeuser", q)
			},
		},
		&cobra.Command{
			Use:   "remove USERNAME",
			Short: "Deactivate a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return printMessage(cmd, http.MethodDelete, "/reservation/user/deleteuser", url.Values{"username": {args[0]}})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			RunE: func(cmd *cobra.Command, _ []string) error {
				var out struct {
					Message struct {
						Users []struct {
							ID        int64  `json:"user_id"`
							Username  string `json:"username"`
							FirstName string `json:"first_name"`
							Role      string `json:"role"`
							Active    bool   `json:"active"`
						} `json:"users"`
					} `json:"message"`
				}
				if err := get().do(cmd.Context(), http.MethodGet, "/reservation/user/getall", nil, nil, &out); err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tFIRST NAME\tROLE\tACTIVE")
				for _, u := range out.Message.Users {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.FirstName, u.Role, u.Active)
				}
				return w.Flush()
			},
		},
	)
	return cmd
}
