package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giftwise/giftwise/internal/server"
	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/api"
	"github.com/giftwise/giftwise/pkg/campaign"
	"github.com/giftwise/giftwise/pkg/catalog"
	"github.com/giftwise/giftwise/pkg/emailtpl"
	"github.com/giftwise/giftwise/pkg/preview"
	"github.com/giftwise/giftwise/pkg/session"
	"github.com/giftwise/giftwise/pkg/storage"
)

type campaignSession struct {
	client *api.Client
	db     *storage.DB
	sess   session.Session
	wizard *campaign.Wizard
	repo   *catalog.Repository
}

// openCampaign loads the campaign and catalog and resumes any staged draft.
func openCampaign(ctx context.Context, id string, offline bool) (*campaignSession, error) {
	c, err := apiClient()
	if err != nil {
		return nil, err
	}
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	db, err := openDB()
	if err != nil {
		return nil, err
	}

	cs, err := resumeCampaign(ctx, c, db, s, id, offline)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cs, nil
}

func resumeCampaign(ctx context.Context, c *api.Client, db *storage.DB, s session.Session, id string, offline bool) (*campaignSession, error) {
	repo, bundles, err := loadCatalog(ctx, c, db, offline)
	if err != nil {
		return nil, err
	}

	staged, err := db.LoadDraft(ctx, storage.KindCampaign, s.OrganizationID, s.UserID, id)
	switch {
	case err == nil:
		var saved, draft campaign.Draft
		if err := json.Unmarshal(staged.Snapshot, &saved); err != nil {
			return nil, fmt.Errorf("corrupt staged campaign: %w", err)
		}
		if err := json.Unmarshal(staged.Draft, &draft); err != nil {
			return nil, fmt.Errorf("corrupt staged campaign: %w", err)
		}
		w := campaign.NewWizard(saved, repo, bundles)
		w.Restore(draft)
		utils.Log.Debugf("Resumed campaign draft staged at %s", staged.SavedAt.Format(time.RFC3339))
		return &campaignSession{client: c, db: db, sess: s, wizard: w, repo: repo}, nil
	case errors.Is(err, storage.ErrNoDraft):
		if offline {
			return nil, fmt.Errorf("no staged draft for campaign %s to work on offline", id)
		}
		d, err := c.GetCampaign(ctx, id)
		if err != nil {
			return nil, err
		}
		if d.ID == "" {
			d.ID = id
		}
		return &campaignSession{client: c, db: db, sess: s, wizard: campaign.NewWizard(d, repo, bundles), repo: repo}, nil
	default:
		return nil, err
	}
}

func (cs *campaignSession) stage(ctx context.Context) error {
	return stageCampaign(ctx, cs.db, cs.sess, cs.wizard.Saved(), cs.wizard.Draft())
}

func stageCampaign(ctx context.Context, db *storage.DB, s session.Session, saved, draft campaign.Draft) error {
	if !campaignChanged(saved, draft) {
		return db.DeleteDraft(ctx, storage.KindCampaign, s.OrganizationID, s.UserID, saved.ID)
	}
	snapshot, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return db.SaveDraft(ctx, storage.Draft{
		Kind:     storage.KindCampaign,
		Org:      s.OrganizationID,
		User:     s.UserID,
		ID:       saved.ID,
		Snapshot: snapshot,
		Draft:    raw,
		Exists:   true,
	})
}

// campaignChanged compares serialized forms, which is what gets saved.
func campaignChanged(a, b campaign.Draft) bool {
	ra, _ := json.Marshal(a)
	rb, _ := json.Marshal(b)
	return string(ra) != string(rb)
}

func withCampaign(cmd *cobra.Command, id string, fn func(ctx context.Context, cs *campaignSession) error) error {
	offline, _ := cmd.Flags().GetBool("offline")
	ctx, cancel := commandContext()
	defer cancel()
	cs, err := openCampaign(ctx, id, offline)
	if err != nil {
		return err
	}
	defer cs.db.Close()
	if err := fn(ctx, cs); err != nil {
		return err
	}
	return cs.stage(ctx)
}

func printCampaign(w *campaign.Wizard) {
	d := w.Draft()
	t := newTable()
	fmt.Fprintf(t, "Campaign:\t%s (%s)\n", d.Name, d.ID)
	fmt.Fprintf(t, "Mode:\t%s\n", d.Mode)
	if d.BundleID != "" {
		fmt.Fprintf(t, "Bundle:\t%s\n", d.BundleID)
	}
	if d.BudgetPerGift > 0 {
		fmt.Fprintf(t, "Budget per gift:\t%.2f\n", d.BudgetPerGift)
	}
	switch d.Mode {
	case campaign.ModeManual:
		fmt.Fprintf(t, "Gift:\t%s\n", d.GiftID)
	case campaign.ModeMulti:
		fmt.Fprintf(t, "Gifts:\t%s\n", strings.Join(d.GiftIDs, ", "))
	}
	fmt.Fprintf(t, "Message:\t%s\n", d.Message.Text)
	fmt.Fprintf(t, "Headline:\t%s\n", d.Landing.Headline)
	if toks := preview.Placeholders(d.Landing); len(toks) > 0 {
		fmt.Fprintf(t, "Placeholders:\t%s\n", strings.Join(toks, ", "))
	}
	for i, b := range d.Landing.Buttons {
		if b.Enabled {
			fmt.Fprintf(t, "Button %d:\t%s -> %s\n", i+1, b.Text, b.URL)
		}
	}
	t.Flush()

	fmt.Println("\nSteps:")
	for _, s := range campaign.Steps {
		errs := s.Check(d)
		status := "ok"
		if !errs.Empty() {
			status = fmt.Sprintf("%d problem(s)", len(errs))
		}
		fmt.Printf("  %-8s %s\n", s.Name, status)
		printErrors(errs)
	}

	if recs := w.Recommendations(); len(recs) > 0 && d.Mode != campaign.ModeHyperPersonalize {
		fmt.Println("\nRecommended gifts:")
		printGifts(recs)
	}
	if w.Dirty() {
		fmt.Printf("\n(unsaved changes: run 'giftwise campaign save %s' or 'giftwise campaign revert %s')\n", d.ID, d.ID)
	}
}

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Work on campaign drafts",
}

var campaignShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a campaign draft with per-step validation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withCampaign(cmd, args[0], func(ctx context.Context, cs *campaignSession) error {
			if asJSON {
				return printJSON(cs.wizard.Draft())
			}
			printCampaign(cs.wizard)
			return nil
		})
	},
}

var campaignEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a campaign draft",
	Long: `Changes fields of a campaign draft. Changes are staged locally until
'campaign save'. Changing the budget or bundle recomputes the recommendations,
and in multi mode drops selected gifts that are no longer recommended.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign(cmd, args[0], func(ctx context.Context, cs *campaignSession) error {
			return applyCampaignFlags(cmd, cs.wizard)
		})
	},
}

func applyCampaignFlags(cmd *cobra.Command, w *campaign.Wizard) error {
	f := cmd.Flags()
	str := func(name string) string {
		v, _ := f.GetString(name)
		return v
	}
	d := w.Draft()

	if f.Changed("name") {
		w.SetName(str("name"))
	}
	if f.Changed("mode") {
		m, err := campaign.ParseMode(str("mode"))
		if err != nil {
			return err
		}
		w.SetMode(m)
	}
	if f.Changed("bundle") {
		if err := w.SelectBundle(str("bundle")); err != nil {
			return err
		}
	}
	if f.Changed("budget") {
		b, _ := f.GetFloat64("budget")
		if err := w.SetBudget(b); err != nil {
			return err
		}
	}
	if f.Changed("gift") {
		if err := w.SelectGift(str("gift")); err != nil {
			return err
		}
	}
	if f.Changed("toggle-gift") {
		ids, _ := f.GetStringSlice("toggle-gift")
		for _, id := range ids {
			if err := w.ToggleGift(id); err != nil {
				return err
			}
		}
	}
	if f.Changed("message") || f.Changed("message-logo") {
		text, logo := d.Message.Text, d.Message.LogoURL
		if f.Changed("message") {
			text = str("message")
		}
		if f.Changed("message-logo") {
			logo = str("message-logo")
		}
		w.SetMessage(text, logo)
	}
	if f.Changed("headline") {
		w.SetHeadline(str("headline"))
	}
	if f.Changed("description") {
		w.SetDescription(str("description"))
	}
	if f.Changed("logo") || f.Changed("background") || f.Changed("background-color") {
		logo, bg, color := d.Landing.LogoURL, d.Landing.BackgroundImageURL, d.Landing.BackgroundColor
		if f.Changed("logo") {
			logo = str("logo")
		}
		if f.Changed("background") {
			bg = str("background")
		}
		if f.Changed("background-color") {
			color = str("background-color")
		}
		w.SetLandingImages(logo, bg, color)
	}
	switch {
	case f.Changed("image") && f.Changed("video"):
		return errors.New("--image and --video are mutually exclusive")
	case f.Changed("image"):
		w.SetMedia(campaign.Media{Type: campaign.MediaImage, URL: strings.TrimSpace(str("image"))})
	case f.Changed("video"):
		w.SetMedia(campaign.Media{Type: campaign.MediaVideo, URL: strings.TrimSpace(str("video"))})
	}
	if f.Changed("event-date") {
		if raw := str("event-date"); raw == "" {
			w.SetEventDate(nil)
		} else {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return fmt.Errorf("invalid --event-date %q (want YYYY-MM-DD)", raw)
			}
			w.SetEventDate(&t)
		}
	}
	for i := range d.Landing.Buttons {
		textFlag, urlFlag := fmt.Sprintf("button%d-text", i+1), fmt.Sprintf("button%d-url", i+1)
		if !f.Changed(textFlag) && !f.Changed(urlFlag) {
			continue
		}
		b := d.Landing.Buttons[i]
		if f.Changed(textFlag) {
			b.Text = strings.TrimSpace(str(textFlag))
		}
		if f.Changed(urlFlag) {
			b.URL = strings.TrimSpace(str(urlFlag))
		}
		b.Enabled = b.Text != "" || b.URL != ""
		if err := w.SetButton(i, b); err != nil {
			return err
		}
	}
	for i := range d.EmailTemplates {
		flag := fmt.Sprintf("email-template%d", i+1)
		if !f.Changed(flag) {
			continue
		}
		html := ""
		if path := str(flag); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			html = string(data)
		}
		if err := w.SetEmailTemplate(i, html); err != nil {
			return err
		}
	}

	if errs := w.Validate(); !errs.Empty() {
		fmt.Fprintln(os.Stderr, "The draft has problems that will block saving:")
		printErrors(errs)
	}
	return nil
}

var campaignSaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Save the draft to the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign(cmd, args[0], func(ctx context.Context, cs *campaignSession) error {
			if !cs.wizard.Dirty() {
				fmt.Println("Nothing to save")
				return nil
			}
			if err := cs.wizard.Save(ctx, cs.client); err != nil {
				reportValidation(err)
				return err
			}
			utils.Log.Infof("Saved campaign %s", args[0])
			return nil
		})
	},
}

var campaignRevertCmd = &cobra.Command{
	Use:   "revert <id>",
	Short: "Discard unsaved changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign(cmd, args[0], func(ctx context.Context, cs *campaignSession) error {
			cs.wizard.Revert()
			utils.Log.Info("Unsaved campaign changes discarded")
			return nil
		})
	},
}

var campaignPreviewCmd = &cobra.Command{
	Use:   "preview <id>",
	Short: "Render the landing page, or serve a live preview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawMode, _ := cmd.Flags().GetString("mode")
		out, _ := cmd.Flags().GetString("out")
		serve, _ := cmd.Flags().GetBool("serve")

		mode, err := preview.ParseViewMode(rawMode)
		if err != nil {
			return err
		}

		return withCampaign(cmd, args[0], func(ctx context.Context, cs *campaignSession) error {
			if serve {
				srv := server.New(cs.wizard, cs.repo, viper.GetString("preview.username"), viper.GetString("preview.password"))
				srv.Title = cs.wizard.Draft().Name
				srv.OnChange = func(d campaign.Draft) error {
					return stageCampaign(context.Background(), cs.db, cs.sess, cs.wizard.Saved(), d)
				}
				return srv.Start(viper.GetString("preview.listen"))
			}

			page := cs.wizard.Draft().Landing
			if out == "" || out == "-" {
				return preview.RenderHTML(os.Stdout, page, mode)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := preview.RenderHTML(f, page, mode); err != nil {
				return err
			}
			utils.Log.Infof("Preview written to %s", out)
			return nil
		})
	},
}

var campaignTemplatesCmd = &cobra.Command{
	Use:   "templates <id>",
	Short: "Inspect the draft's email templates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("text")
		return withCampaign(cmd, args[0], func(ctx context.Context, cs *campaignSession) error {
			for i, html := range cs.wizard.Draft().EmailTemplates {
				fmt.Printf("Template %d:\n", i+1)
				if strings.TrimSpace(html) == "" {
					fmt.Println("  (empty)")
					continue
				}
				sum, err := emailtpl.Inspect(html)
				if err != nil {
					return err
				}
				fmt.Printf("  title: %s\n", sum.Title)
				fmt.Printf("  links: %d, images: %d\n", len(sum.Links), len(sum.Images))
				if len(sum.Placeholders) > 0 {
					fmt.Printf("  placeholders: %s\n", strings.Join(sum.Placeholders, ", "))
				}
				if msg := emailtpl.Validate(html); msg != "" {
					fmt.Printf("  problem: %s\n", msg)
				}
				if plain {
					fmt.Printf("\n%s\n\n", sum.PlainText)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(campaignCmd)
	campaignCmd.AddCommand(campaignShowCmd, campaignEditCmd, campaignSaveCmd, campaignRevertCmd, campaignPreviewCmd, campaignTemplatesCmd)

	for _, c := range []*cobra.Command{campaignShowCmd, campaignEditCmd, campaignRevertCmd, campaignPreviewCmd, campaignTemplatesCmd} {
		c.Flags().Bool("offline", false, "Work on the staged draft with the cached catalog")
	}
	campaignSaveCmd.Flags().Bool("offline", false, "Use the cached catalog")

	campaignShowCmd.Flags().Bool("json", false, "Print the draft as JSON")

	addCampaignEditFlags(campaignEditCmd)

	campaignPreviewCmd.Flags().String("mode", "desktop", "View mode: desktop or mobile")
	campaignPreviewCmd.Flags().StringP("out", "o", "", "Write HTML to this file instead of stdout")
	campaignPreviewCmd.Flags().Bool("serve", false, "Serve a live preview (preview.listen)")

	campaignTemplatesCmd.Flags().Bool("text", false, "Also print the plain-text version")
}

func addCampaignEditFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("name", "", "Campaign name")
	f.String("mode", "", "Gift selection mode: manual, multi, hyper-personalize")
	f.String("bundle", "", "Restrict gifts to a bundle (empty for the whole catalog)")
	f.Float64("budget", 0, "Budget per gift (0 = no limit)")
	f.String("gift", "", "Gift for manual mode")
	f.StringSlice("toggle-gift", nil, "Add or remove gifts in multi mode")
	f.String("message", "", "Postcard message")
	f.String("message-logo", "", "Postcard logo URL")
	f.String("headline", "", "Landing page headline (at most 120 characters)")
	f.String("description", "", "Landing page description, markdown (at most 500 characters)")
	f.String("logo", "", "Landing page logo URL")
	f.String("background", "", "Landing page background image URL")
	f.String("background-color", "", "Landing page background color")
	f.String("image", "", "Landing page image URL")
	f.String("video", "", "Landing page video URL")
	f.String("event-date", "", "Event date (YYYY-MM-DD, empty to clear)")
	for i := 1; i <= 2; i++ {
		f.String(fmt.Sprintf("button%d-text", i), "", fmt.Sprintf("Action button %d text", i))
		f.String(fmt.Sprintf("button%d-url", i), "", fmt.Sprintf("Action button %d URL", i))
		f.String(fmt.Sprintf("email-template%d", i), "", fmt.Sprintf("HTML file for email template %d (empty to clear)", i))
	}
}
