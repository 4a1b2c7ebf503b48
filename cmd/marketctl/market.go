package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/influencehub/marketplace/internal/infrastructure/apiclient"
)

func newCampaignsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "campaigns",
		Aliases: []string{"campaign"},
		Short:   "Browse, publish and apply to campaigns",
	}
	cmd.AddCommand(
		newCampaignsListCmd(a),
		newCampaignsShowCmd(a),
		newCampaignsCreateCmd(a),
		newCampaignsApplyCmd(a),
	)
	return cmd
}

func newCampaignsListCmd(a *app) *cobra.Command {
	var q apiclient.CampaignQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			page, err := a.client.ListCampaigns(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&q.Mine, "mine", false, "only campaigns published by this brand")
	f.StringVar(&q.Status, "status", "", "filter by status")
	f.StringVar(&q.Category, "category", "", "filter by category")
	f.StringVar(&q.Search, "search", "", "search title and brand name")
	f.IntVar(&q.Page, "page", 0, "page number, starting at 1")
	f.IntVar(&q.Limit, "limit", 0, "page size")
	return cmd
}

func newCampaignsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			campaign, err := a.client.GetCampaign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), campaign)
		},
	}
}

func newCampaignsCreateCmd(a *app) *cobra.Command {
	var in apiclient.NewCampaign
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a campaign (brand accounts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			campaign, err := a.client.CreateCampaign(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), campaign)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "campaign title")
	f.StringVar(&in.Description, "description", "", "campaign brief")
	f.StringVar(&in.Category, "category", "", "content category")
	f.StringSliceVar(&in.Platforms, "platform", nil, "target platform, repeatable")
	f.Float64Var(&in.Budget, "budget", 0, "total budget")
	f.StringVar(&in.Currency, "currency", "", "ISO currency code (default USD)")
	f.Int64Var(&in.MinFollowers, "min-followers", 0, "minimum follower count to apply")
	f.StringVar(&in.Deadline, "deadline", "", "application deadline, RFC 3339 or YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

func newCampaignsApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <id>",
		Short: "Apply to a campaign (influencer accounts)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			collab, err := a.client.ApplyToCampaign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), collab)
		},
	}
}

func newCollaborationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "collaborations",
		Aliases: []string{"collabs"},
		Short:   "List collaborations of the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			collabs, err := a.client.ListCollaborations(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), collabs)
		},
	}
}

func newEarningsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "earnings",
		Short: "Show payouts (influencer accounts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			e, err := a.client.Earnings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), e)
		},
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the account summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			d, err := a.client.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(args[0])
			contentType := mime.TypeByExtension(filepath.Ext(name))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			up, err := a.client.Upload(cmd.Context(), name, contentType, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", name, err)
			}
			return printJSON(cmd.OutOrStdout(), up)
		},
	}
}
