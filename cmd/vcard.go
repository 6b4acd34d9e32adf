package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/api"
	"github.com/giftwise/giftwise/pkg/handlecheck"
	"github.com/giftwise/giftwise/pkg/session"
	"github.com/giftwise/giftwise/pkg/storage"
	"github.com/giftwise/giftwise/pkg/validation"
	"github.com/giftwise/giftwise/pkg/vcard"
)

// vcardSession bundles what every vcard subcommand needs.
type vcardSession struct {
	client  *api.Client
	db      *storage.DB
	sess    session.Session
	editor  *vcard.Editor
	checker *handlecheck.Checker
}

// openVCard resumes the staged edit session, or starts one from the card on
// the backend.
func openVCard(ctx context.Context) (*vcardSession, error) {
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

	checker := handlecheck.New(c.HandleAvailable)
	vs := &vcardSession{client: c, db: db, sess: s, checker: checker, editor: vcard.NewEditor(c, checker)}

	staged, err := db.LoadDraft(ctx, storage.KindVCard, s.OrganizationID, s.UserID, "")
	switch {
	case err == nil:
		var snapshot, draft vcard.Card
		if err := json.Unmarshal(staged.Snapshot, &snapshot); err != nil {
			db.Close()
			return nil, fmt.Errorf("corrupt staged vcard: %w", err)
		}
		if err := json.Unmarshal(staged.Draft, &draft); err != nil {
			db.Close()
			return nil, fmt.Errorf("corrupt staged vcard: %w", err)
		}
		vs.editor.Resume(snapshot, draft, staged.Exists)
		utils.Log.Debugf("Resumed vcard draft staged at %s", staged.SavedAt.Format(time.RFC3339))
	case errors.Is(err, storage.ErrNoDraft):
		if err := vs.editor.Load(ctx); err != nil {
			db.Close()
			return nil, err
		}
	default:
		db.Close()
		return nil, err
	}
	return vs, nil
}

// stage parks the draft in the workspace, or drops it when nothing changed.
func (vs *vcardSession) stage(ctx context.Context) error {
	if !vs.editor.Dirty() {
		return vs.db.DeleteDraft(ctx, storage.KindVCard, vs.sess.OrganizationID, vs.sess.UserID, "")
	}
	snapshot, err := json.Marshal(vs.editor.Snapshot())
	if err != nil {
		return err
	}
	draft, err := json.Marshal(vs.editor.Draft())
	if err != nil {
		return err
	}
	return vs.db.SaveDraft(ctx, storage.Draft{
		Kind:     storage.KindVCard,
		Org:      vs.sess.OrganizationID,
		User:     vs.sess.UserID,
		Snapshot: snapshot,
		Draft:    draft,
		Exists:   vs.editor.Exists(),
	})
}

// awaitHandle runs the debounced availability check and waits for it.
func (vs *vcardSession) awaitHandle(ctx context.Context, handle string) handlecheck.Result {
	done := make(chan handlecheck.Result, 1)
	vs.checker.Submit(ctx, handle, func(r handlecheck.Result) { done <- r })
	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		vs.checker.Cancel()
		return handlecheck.Result{Handle: handle}
	}
}

func (vs *vcardSession) Close() error {
	vs.checker.Cancel()
	return vs.db.Close()
}

// withVCard runs fn on an open session and stages the result.
func withVCard(fn func(ctx context.Context, vs *vcardSession) error) error {
	ctx, cancel := commandContext()
	defer cancel()
	vs, err := openVCard(ctx)
	if err != nil {
		return err
	}
	defer vs.Close()
	if err := fn(ctx, vs); err != nil {
		return err
	}
	return vs.stage(ctx)
}

func printCard(c vcard.Card, dirty bool) {
	w := newTable()
	fmt.Fprintf(w, "Handle:\t%s\n", c.Handle)
	fmt.Fprintf(w, "Name:\t%s\n", c.FullName)
	fmt.Fprintf(w, "Title:\t%s\n", c.Title)
	fmt.Fprintf(w, "Company:\t%s\n", c.Company)
	fmt.Fprintf(w, "Theme:\t%s\n", c.Theme)
	if c.Note != "" {
		fmt.Fprintf(w, "Note:\t%s\n", c.Note)
	}
	if c.Alert.Active(time.Now()) {
		alert := c.Alert.Text
		if c.Alert.Type == vcard.AlertLink {
			alert += " -> " + c.Alert.URL
		}
		fmt.Fprintf(w, "Alert:\t%s\n", alert)
	}
	w.Flush()

	if len(c.Links) > 0 {
		fmt.Println()
		w = newTable()
		fmt.Fprintln(w, "#\tTYPE\tVALUE\tICON\tVISIBLE\t")
		for i, l := range c.SortedLinks() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t\n", i, l.Type, l.Value, vcard.InferIcon(l), l.Visible)
		}
		w.Flush()
	}
	if dirty {
		fmt.Println("\n(unsaved changes: run 'giftwise vcard save' or 'giftwise vcard revert')")
	}
}

var vcardCmd = &cobra.Command{
	Use:   "vcard",
	Short: "Edit your digital business card",
}

var vcardShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the card, including unsaved changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			if asJSON {
				return printJSON(vs.editor.Draft())
			}
			printCard(vs.editor.Draft(), vs.editor.Dirty())
			return nil
		})
	},
}

var vcardSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change profile fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			var theme vcard.Theme
			if cmd.Flags().Changed("theme") {
				raw, _ := cmd.Flags().GetString("theme")
				t, err := vcard.ParseTheme(raw)
				if err != nil {
					return err
				}
				theme = t
			}

			vs.editor.Edit(func(c *vcard.Card) {
				setString(cmd, "handle", &c.Handle)
				setString(cmd, "name", &c.FullName)
				setString(cmd, "title", &c.Title)
				setString(cmd, "company", &c.Company)
				setString(cmd, "note", &c.Note)
				if theme != "" {
					c.Theme = theme
				}
			})

			// Surface field errors right away; they only block saving.
			errs := vs.editor.Validate()
			if !errs.Empty() {
				fmt.Fprintln(os.Stderr, "The draft has problems that will block saving:")
				printErrors(errs)
			}
			if vs.editor.HandleChanged() && errs["handle"] == "" {
				if res := vs.awaitHandle(ctx, vs.editor.Draft().Handle); res.Message != "" {
					utils.Log.Warnf("@%s: %s", res.Handle, res.Message)
				}
			}
			return nil
		})
	},
}

func setString(cmd *cobra.Command, flag string, dst *string) {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		*dst = strings.TrimSpace(v)
	}
}

var vcardLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Add, remove or reorder links",
}

var vcardLinkAddCmd = &cobra.Command{
	Use:   "add <type> <value>",
	Short: "Append a link (types: phone, whatsapp, email, website, linkedin, twitter, instagram, facebook, github, youtube, tiktok, custom)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hidden, _ := cmd.Flags().GetBool("hidden")
		icon, _ := cmd.Flags().GetString("icon")
		l := vcard.Link{Type: vcard.LinkType(strings.ToLower(args[0])), Value: strings.TrimSpace(args[1]), Visible: !hidden, Icon: icon}
		if msg := vcard.ValidateLink(l); msg != "" {
			return errors.New(msg)
		}
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			vs.editor.AddLink(l)
			return nil
		})
	},
}

var vcardLinkRemoveCmd = &cobra.Command{
	Use:   "remove <position>",
	Short: "Remove the link at a position (see 'vcard show')",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[0])
		}
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			return vs.editor.RemoveLink(i)
		})
	},
}

var vcardLinkMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a link to another position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[0])
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[1])
		}
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			return vs.editor.MoveLink(from, to)
		})
	},
}

var vcardAlertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Set or clear the alert banner",
	RunE: func(cmd *cobra.Command, args []string) error {
		clearAlert, _ := cmd.Flags().GetBool("clear")
		text, _ := cmd.Flags().GetString("text")
		link, _ := cmd.Flags().GetString("url")
		expires, _ := cmd.Flags().GetString("expires")

		var alert *vcard.Alert
		if !clearAlert {
			alert = &vcard.Alert{Text: text, Type: vcard.AlertText}
			if link != "" {
				alert.Type = vcard.AlertLink
				alert.URL = link
			}
			if expires != "" {
				t, err := time.Parse("2006-01-02", expires)
				if err != nil {
					return fmt.Errorf("invalid --expires date %q (want YYYY-MM-DD)", expires)
				}
				alert.ExpiresAt = &t
			}
			if n := len([]rune(text)); n > validation.CharacterLimits.AlertText {
				utils.Log.Warnf("Alert text truncated to %d characters", validation.CharacterLimits.AlertText)
			}
		}
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			vs.editor.Edit(func(c *vcard.Card) { c.Alert = alert })
			return nil
		})
	},
}

var vcardCheckHandleCmd = &cobra.Command{
	Use:   "check-handle <handle>",
	Short: "Check whether a handle is valid and available",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		res := handlecheck.New(c.HandleAvailable).Check(ctx, args[0])
		if res.Err != nil {
			return fmt.Errorf("%s: %w", res.Message, res.Err)
		}
		if res.Message != "" {
			return errors.New(res.Message)
		}
		fmt.Printf("%s is available\n", res.Handle)
		return nil
	},
}

var vcardValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the draft without saving it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			errs := vs.editor.Validate()
			if errs.Empty() {
				fmt.Println("The card is valid")
				return nil
			}
			printErrors(errs)
			return errs.AsError()
		})
	},
}

var vcardSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the draft to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			if !vs.editor.Dirty() && vs.editor.Exists() {
				fmt.Println("Nothing to save")
				return nil
			}
			saved, err := vs.editor.Save(ctx)
			if err != nil {
				reportValidation(err)
				return err
			}
			utils.Log.Infof("Saved vcard @%s", saved.Handle)
			return nil
		})
	},
}

var vcardRevertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Discard unsaved changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVCard(func(ctx context.Context, vs *vcardSession) error {
			vs.editor.Cancel()
			utils.Log.Info("Unsaved vcard changes discarded")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(vcardCmd)
	vcardCmd.AddCommand(vcardShowCmd, vcardSetCmd, vcardLinkCmd, vcardAlertCmd, vcardCheckHandleCmd, vcardValidateCmd, vcardSaveCmd, vcardRevertCmd)
	vcardLinkCmd.AddCommand(vcardLinkAddCmd, vcardLinkRemoveCmd, vcardLinkMoveCmd)

	vcardShowCmd.Flags().Bool("json", false, "Print the draft as JSON")

	vcardSetCmd.Flags().String("handle", "", "Public handle (3-30 letters, numbers, dots, hyphens, underscores)")
	vcardSetCmd.Flags().String("name", "", "Full name")
	vcardSetCmd.Flags().String("title", "", "Job title")
	vcardSetCmd.Flags().String("company", "", "Company")
	vcardSetCmd.Flags().String("note", "", "Free-form note")
	vcardSetCmd.Flags().String("theme", "", "Theme: classic, midnight, ocean, sunset")

	vcardLinkAddCmd.Flags().Bool("hidden", false, "Add the link hidden from the public card")
	vcardLinkAddCmd.Flags().String("icon", "", "Icon override")

	vcardAlertCmd.Flags().String("text", "", "Alert text (at most 40 characters)")
	vcardAlertCmd.Flags().String("url", "", "Make the alert a link to this URL")
	vcardAlertCmd.Flags().String("expires", "", "Hide the alert after this date (YYYY-MM-DD)")
	vcardAlertCmd.Flags().Bool("clear", false, "Remove the alert")
}
