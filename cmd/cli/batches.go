package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/and161185/ayurtrace/internal/api"
)

func (c *cli) batchesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "batches", Short: "Harvest batch operations"}
	cmd.AddCommand(
		c.batchesListCmd(),
		c.batchesGetCmd(),
		c.batchesRecognizeCmd(),
		c.batchesPrepareCmd(),
		c.batchesSubmitCmd(),
		c.batchesReviewCmd(),
		c.batchesUploadCmd(),
		c.batchesRecallCmd(),
	)
	return cmd
}

// printBatches renders a compact table; --json prints the raw list instead.
func printBatches(cmd *cobra.Command, list *api.BatchList, asJSON bool) {
	if asJSON {
		printJSON(cmd.OutOrStdout(), list)
		return
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLANT\tSTATUS\tSUBMITTED\tLAB")
	for _, b := range list.Batches {
		lab := "-"
		if b.LabResult != nil {
			lab = b.LabResult.Result
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.PlantName, b.StatusLabel, b.SubmittedAt.Format("2006-01-02 15:04"), lab)
	}
	_ = tw.Flush()
}

func (c *cli) batchesListCmd() *cobra.Command {
	var (
		all            bool
		status, search string
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List own batches, or all with --all (lab, regulator)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			var list *api.BatchList
			if all {
				list, err = cl.ListBatches(cmd.Context(), &api.ListBatchesRequest{Status: status, Search: search})
			} else {
				list, err = cl.ListMyBatches(cmd.Context(), &api.Empty{})
			}
			if err != nil {
				return err
			}
			printBatches(cmd, list, asJSON)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&all, "all", false, "list every batch")
	f.StringVar(&status, "status", "", "filter by status (with --all)")
	f.StringVar(&search, "search", "", "search id, plant or farmer (with --all)")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) batchesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			b, err := cl.GetBatch(cmd.Context(), &api.GetBatchRequest{ID: args[0]})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func (c *cli) batchesRecognizeCmd() *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Identify the plant in a photo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			img, err := readAll(image)
			if err != nil {
				return err
			}
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			r, err := cl.Recognize(cmd.Context(), &api.RecognizeRequest{Image: img})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "photo path or - for stdin")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func (c *cli) batchesPrepareCmd() *cobra.Command {
	var (
		image    string
		lat, lon float64
	)
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Recognize a photo and resolve the address in one step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			img, err := readAll(image)
			if err != nil {
				return err
			}
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			d, err := cl.PrepareSubmission(cmd.Context(), &api.PrepareSubmissionRequest{Image: img, Latitude: lat, Longitude: lon})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), d)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&image, "image", "", "photo path or - for stdin")
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lon, "lon", 0, "longitude")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func (c *cli) batchesSubmitCmd() *cobra.Command {
	var (
		req      api.SubmitBatchRequest
		image    string
		conf     api.Confirmation
		withConf bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a harvest batch (farmer)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if image != "" {
				img, err := readAll(image)
				if err != nil {
					return err
				}
				req.Image = img
			}
			if withConf {
				req.Confirmation = &conf
			}
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			b, err := cl.SubmitBatch(cmd.Context(), &req)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), b)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.PlantName, "plant", "", "plant name")
	f.Float64Var(&req.Confidence, "confidence", 0, "recognition confidence 0..100")
	f.Float64Var(&req.Latitude, "lat", 0, "latitude")
	f.Float64Var(&req.Longitude, "lon", 0, "longitude")
	f.StringVar(&req.Address, "address", "", "address")
	f.StringVar(&image, "image", "", "optional photo path")
	f.BoolVar(&withConf, "confirm", false, "attach IVR confirmation")
	f.StringVar(&conf.FarmerName, "confirm-farmer", "", "confirmed farmer name")
	f.StringVar(&conf.PlantType, "confirm-plant", "", "confirmed plant type")
	f.StringVar(&conf.Quantity, "confirm-quantity", "", "confirmed quantity")
	_ = cmd.MarkFlagRequired("plant")
	return cmd
}

func (c *cli) batchesReviewCmd() *cobra.Command {
	var (
		req           api.ReviewBatchRequest
		file, verdict string
	)
	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Set a batch status (lab, regulator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ID = args[0]
			if file != "" || verdict != "" {
				req.LabResult = &api.LabResult{FileName: file, Result: verdict}
			}
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			b, err := cl.ReviewBatch(cmd.Context(), &req)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), b)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Status, "status", "", "approved | rejected | recalled")
	f.StringVar(&file, "report", "", "lab report file name")
	f.StringVar(&verdict, "result", "", "Pass | Fail")
	f.Int64Var(&req.BaseVer, "base-ver", 0, "expected version (0 = unconditional)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func (c *cli) batchesUploadCmd() *cobra.Command {
	var req api.UploadLabReportRequest
	cmd := &cobra.Command{
		Use:   "upload-report <id>",
		Short: "Attach a lab report; Pass approves, Fail rejects (lab)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ID = args[0]
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			b, err := cl.UploadLabReport(cmd.Context(), &req)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), b)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.FileName, "report", "", "lab report file name")
	f.StringVar(&req.Result, "result", "", "Pass | Fail")
	f.Int64Var(&req.BaseVer, "base-ver", 0, "expected version (0 = unconditional)")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("result")
	return cmd
}

func (c *cli) batchesRecallCmd() *cobra.Command {
	var req api.RecallBatchRequest
	cmd := &cobra.Command{
		Use:   "recall <id>",
		Short: "Recall a batch (regulator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ID = args[0]
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			b, err := cl.RecallBatch(cmd.Context(), &req)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), b)
			return nil
		},
	}
	cmd.Flags().Int64Var(&req.BaseVer, "base-ver", 0, "expected version (0 = unconditional)")
	return cmd
}
