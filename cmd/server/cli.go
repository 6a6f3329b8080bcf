package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeecarter/heart-readings-server/client"
	"github.com/joeecarter/heart-readings-server/reading"
	"github.com/joeecarter/heart-readings-server/render"
	"github.com/joeecarter/heart-readings-server/request"
)

const defaultServerURL = "http://localhost:8080"

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Search and sort the readings held by a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		serverURL, _ := flags.GetString("server")
		opts := client.ListOptions{}
		opts.Search, _ = flags.GetString("q")
		opts.Filter, _ = flags.GetString("filter")
		opts.Field, _ = flags.GetString("sort")
		opts.Direction, _ = flags.GetString("dir")

		resp, err := client.New(serverURL, log).List(cmd.Context(), opts)
		if err != nil {
			return err
		}

		readings := make([]*reading.Reading, len(resp.Readings))
		for i, view := range resp.Readings {
			readings[i] = view.Reading
		}
		title := fmt.Sprintf("%d readings by %s (%s)", resp.Count, resp.Sort.Field, resp.Sort.Direction)
		fmt.Fprint(cmd.OutOrStdout(), render.Readings(title, readings))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Upload an export file to a running server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")

		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		export, err := request.Parse(b)
		if err != nil {
			return err
		}

		msg, err := client.New(serverURL, log).Upload(cmd.Context(), export)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, importCmd} {
		cmd.Flags().String("server", defaultServerURL, "Base URL of the readings server")
	}

	listCmd.Flags().String("q", "", "Search term matched against date, type, heart rate and notes")
	listCmd.Flags().String("filter", "", "Quick filter: normal, sinus, afib or clear")
	listCmd.Flags().String("sort", "", "Sort field: date, heartRate, ecgType or systolic")
	listCmd.Flags().String("dir", "", "Sort direction: asc or desc")
}
