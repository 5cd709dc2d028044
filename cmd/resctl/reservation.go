package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"

	"grid-reservation/internal/pkg/errs"

	"github.com/spf13/cobra"
)

type reservationRow struct {
	ReservationID int64   `json:"reservation_id"`
	Username      string  `json:"username"`
	Equipment     string  `json:"equipment"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Active        bool    `json:"active"`
	Cost          float64 `json:"cost"`
	DownPayment   float64 `json:"downpayment"`
	Location      string  `json:"location"`
}

type reservationList struct {
	Message struct {
		Reservations []reservationRow `json:"reservations"`
	} `json:"message"`
}

var errAccessDenied = errs.New("access denied, you can not cancel this reservation")

func newReserveCmd(get func() *client) *cobra.Command {
	var (
		customer, equipmentName, start, end string
		x, y                                int
	)
	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Reserve equipment for a slot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := get()
			if customer == "" && c.session != nil {
				customer = c.session.Username
			}
			body := map[string]any{
				"start_time":     start,
				"end_time":       end,
				"user_name":      customer,
				"equipment_name": equipmentName,
				"x_coor":         x,
				"y_coor":         y,
			}
			var out struct {
				Message       string  `json:"message"`
				ReservationID int64   `json:"reservation_id"`
				DownPayment   float64 `json:"downpayment"`
			}
			if err := c.do(cmd.Context(), http.MethodPost, "/reservation/post", nil, body, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "reservation id: %d\n", out.ReservationID)
			return nil
		},
	}
	cmd.Flags().StringVar(&customer, "user", "", "customer name (defaults to --as)")
	cmd.Flags().StringVar(&equipmentName, "equipment", "", "equipment name")
	cmd.Flags().StringVar(&start, "start", "", "start time, YYYY-MM-DD HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "end time, YYYY-MM-DD HH:MM")
	cmd.Flags().IntVar(&x, "x", 0, "grid column, 1-20")
	cmd.Flags().IntVar(&y, "y", 0, "grid row, 1-20")
	for _, name := range []string{"equipment", "start", "end", "x", "y"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newCancelCmd(get func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel RESERVATION_ID",
		Short: "Cancel a reservation and show the refund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return errs.Newf("invalid reservation id %q", args[0])
			}
			c := get()

			// customers may only cancel their own bookings
			if c.session != nil && c.session.Role == "customer" {
				owner, err := c.owner(cmd.Context(), id)
				if err != nil {
					return err
				}
				if owner != c.session.Username {
					return errAccessDenied
				}
			}

			var out struct {
				Message string  `json:"message"`
				Refund  float64 `json:"refund"`
			}
			q := url.Values{"id": {strconv.FormatInt(id, 10)}}
			if err := c.do(cmd.Context(), http.MethodDelete, "/reservation/cancel", q, nil, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "Your refund is: %s\n", strconv.FormatFloat(out.Refund, 'f', -1, 64))
			return nil
		},
	}
}

func newListCmd(get func() *client) *cobra.Command {
	var start, end, customer, equipmentName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations contained in a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if customer != "" && equipmentName != "" {
				return errs.New("--user and --equipment are mutually exclusive")
			}
			q := url.Values{"start": {start}, "end": {end}}
			path := "/reservation/getbytime"
			switch {
			case customer != "":
				path = "/reservation/getbyuser"
				q.Set("user_name", customer)
			case equipmentName != "":
				path = "/reservation/getbyequip"
				q.Set("equipment_name", equipmentName)
			}

			var out reservationList
			if err := get().do(cmd.Context(), http.MethodGet, path, q, nil, &out); err != nil {
				return err
			}
			return printReservations(cmd.OutOrStdout(), out.Message.Reservations)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start, YYYY-MM-DD HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "range end, YYYY-MM-DD HH:MM")
	cmd.Flags().StringVar(&customer, "user", "", "only this customer's reservations")
	cmd.Flags().StringVar(&equipmentName, "equipment", "", "only this equipment's reservations")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newAllCmd(get func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "List every active reservation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out reservationList
			if err := get().do(cmd.Context(), http.MethodGet, "/reservation/getall", nil, nil, &out); err != nil {
				return err
			}
			return printReservations(cmd.OutOrStdout(), out.Message.Reservations)
		},
	}
}

func newFinancialCmd(get func() *client) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "financial",
		Short: "Show reservation and cancellation costs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				Message struct {
					Reservations  []reservationRow `json:"reservations"`
					Cancellations []reservationRow `json:"cancellations"`
				} `json:"message"`
			}
			q := url.Values{"start": {start}, "end": {end}}
			if err := get().do(cmd.Context(), http.MethodGet, "/reservation/financial", q, nil, &out); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tID\tUSER\tEQUIPMENT\tSTART\tEND\tCOST")
			for _, set := range []struct {
				kind string
				rows []reservationRow
			}{
				{"reservation", out.Message.Reservations},
				{"cancellation", out.Message.Cancellations},
			} {
				for _, r := range set.rows {
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
						set.kind, r.ReservationID, r.Username, r.Equipment, r.StartDate, r.EndDate,
						strconv.FormatFloat(r.Cost, 'f', 2, 64))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start, YYYY-MM-DD HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "range end, YYYY-MM-DD HH:MM")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newEquipmentCmd(get func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "equipment",
		Short: "Show the equipment catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				Message struct {
					Equipment []struct {
						Name       string  `json:"name"`
						Capacity   int     `json:"capacity"`
						HourlyRate float64 `json:"hourly_rate"`
					} `json:"equipment"`
				} `json:"message"`
			}
			if err := get().do(cmd.Context(), http.MethodGet, "/reservation/equipment", nil, nil, &out); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCAPACITY\tHOURLY RATE")
			for _, e := range out.Message.Equipment {
				fmt.Fprintf(w, "%s\t%d\t%s\n", e.Name, e.Capacity, strconv.FormatFloat(e.HourlyRate, 'f', 2, 64))
			}
			return w.Flush()
		},
	}
}

func printReservations(out io.Writer, rows []reservationRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "no reservations")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tEQUIPMENT\tSTART\tEND\tCOST\tDOWN PAYMENT\tLOCATION")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ReservationID, r.Username, r.Equipment, r.StartDate, r.EndDate,
			strconv.FormatFloat(r.Cost, 'f', 2, 64),
			strconv.FormatFloat(r.DownPayment, 'f', 2, 64),
			r.Location)
	}
	return w.Flush()
}
