package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/City-Bureau/showroomchat/pkg/admin"
	"github.com/City-Bureau/showroomchat/pkg/locale"
	"github.com/City-Bureau/showroomchat/pkg/settings"
)

var errLoginFailed = errors.New("admin: wrong password")

func newAdminCmd(configPath *string) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin chat panel commands",
		Long:  "Lists visitor chats, opens them, and replies. Requires the admin password.",
	}
	cmd.PersistentFlags().StringVarP(&password, "password", "p", "", "admin password")

	cmd.AddCommand(newAdminListCmd(configPath, &password))
	cmd.AddCommand(newAdminOpenCmd(configPath, &password))
	cmd.AddCommand(newAdminReplyCmd(configPath, &password))
	cmd.AddCommand(newAdminWatchCmd(configPath, &password))
	cmd.AddCommand(newAdminSettingsCmd(configPath, &password))
	return cmd
}

// loginApp loads the app and checks the admin password
func loginApp(cmd *cobra.Command, configPath, password string) (*app, error) {
	a, err := loadApp(configPath, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if !admin.NewGate(a.cfg.Admin.Password).Login(password) {
		a.close()
		return nil, errLoginFailed
	}
	return a, nil
}

func openPanel(cmd *cobra.Command, configPath, password string, opts admin.Options) (*app, *admin.Panel, error) {
	a, err := loginApp(cmd, configPath, password)
	if err != nil {
		return nil, nil, err
	}
	opts.Source = a.source
	opts.Logger = a.logger
	return a, admin.New(a.store, opts), nil
}

func printSessionList(cmd *cobra.Command, a *app, panel *admin.Panel) {
	out := cmd.OutOrStdout()
	localizer := locale.LoadLocalizer(a.cfg.Chat.Locale)
	list := panel.ListSessions()

	fmt.Fprintln(out, locale.Text(localizer, "conversations-title", map[string]interface{}{"Count": len(list)}))
	if len(list) == 0 {
		fmt.Fprintln(out, locale.Text(localizer, "no-conversations", nil))
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tUNREAD\tLAST\tPREVIEW")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.Session.ID, s.Session.VisitorName, s.Session.VisitorPhone, s.Unread,
			s.Session.LastMessageAt.Local().Format("2006-01-02 15:04"), truncate(s.Preview, 40))
	}
	w.Flush()
}

func printDetail(cmd *cobra.Command, a *app, panel *admin.Panel) {
	out := cmd.OutOrStdout()
	localizer := locale.LoadLocalizer(a.cfg.Chat.Locale)
	session, state := panel.Detail()
	switch state {
	case admin.DetailNone:
		fmt.Fprintln(out, locale.Text(localizer, "select-conversation", nil))
	case admin.DetailStale:
		fmt.Fprintln(out, locale.Text(localizer, "session-unavailable", nil))
	default:
		fmt.Fprintf(out, "%s (%s)\n\n", session.VisitorName, session.VisitorPhone)
		printMessages(out, session, 0, a.site.SiteName())
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func newAdminListCmd(configPath, password *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chats, most recently active first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, panel, err := openPanel(cmd, *configPath, *password, admin.Options{})
			if err != nil {
				return err
			}
			defer a.close()

			printSessionList(cmd, a, panel)
			return nil
		},
	}
}

func newAdminOpenCmd(configPath, password *string) *cobra.Command {
	return &cobra.Command{
		Use:   "open <session-id>",
		Short: "Open a chat and mark the visitor's messages read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, panel, err := openPanel(cmd, *configPath, *password, admin.Options{})
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := panel.Select(args[0]); err != nil {
				return err
			}
			printDetail(cmd, a, panel)
			return nil
		},
	}
}

func newAdminReplyCmd(configPath, password *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <session-id> <message>",
		Short: "Reply to a chat",
		Long:  "Opens the chat, marking the visitor's messages read, then sends the reply.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, panel, err := openPanel(cmd, *configPath, *password, admin.Options{})
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := panel.Select(args[0]); err != nil {
				return err
			}
			message, err := panel.Reply(strings.Join(args[1:], " "))
			if errors.Is(err, admin.ErrEmptyMessage) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent reply %s\n", message.ID)
			return nil
		},
	}
}

func newAdminWatchCmd(configPath, password *string) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the chat list until interrupted",
		Long:  "Reprints the chat list on every poll tick. With --session, follows that chat's messages instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var a *app
			var panel *admin.Panel
			lastSeen := ""
			printed := 0

			onRefresh := func() {
				if sessionID == "" {
					// Only reprint when something changed
					fingerprint := listFingerprint(panel.ListSessions())
					if fingerprint != lastSeen {
						lastSeen = fingerprint
						printSessionList(cmd, a, panel)
					}
					return
				}
				session, state := panel.Detail()
				if state == admin.DetailOpen && len(session.Messages) > printed {
					printMessages(cmd.OutOrStdout(), session, printed, a.site.SiteName())
					printed = len(session.Messages)
				}
			}

			a, panel, err := openPanel(cmd, *configPath, *password, admin.Options{OnRefresh: onRefresh})
			if err != nil {
				return err
			}
			defer a.close()

			if sessionID != "" {
				session, err := panel.Select(sessionID)
				if err != nil {
					return err
				}
				printDetail(cmd, a, panel)
				printed = len(session.Messages)
			} else {
				lastSeen = listFingerprint(panel.ListSessions())
				printSessionList(cmd, a, panel)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			panel.Start(ctx)
			<-ctx.Done()
			panel.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session to follow")
	return cmd
}

func listFingerprint(list []admin.Summary) string {
	var b strings.Builder
	for _, s := range list {
		fmt.Fprintf(&b, "%s:%d:%d;", s.Session.ID, len(s.Session.Messages), s.Unread)
	}
	return b.String()
}

func newAdminSettingsCmd(configPath, password *string) *cobra.Command {
	var (
		siteName    string
		description string
		phone       string
		whatsapp    string
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update site settings",
		Long:  "Prints the site settings. Any flag given is saved first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loginApp(cmd, *configPath, *password)
			if err != nil {
				return err
			}
			defer a.close()

			site := a.site.Load()
			changed := false
			for flag, field := range map[string]*string{
				"site-name":   &site.SiteName,
				"description": &site.SiteDescription,
				"phone":       &site.Phone,
				"whatsapp":    &site.WhatsApp,
			} {
				if cmd.Flags().Changed(flag) {
					value, _ := cmd.Flags().GetString(flag)
					*field = value
					changed = true
				}
			}
			if changed {
				if err := a.site.Save(site); err != nil {
					return err
				}
				site = a.site.Load()
			}
			printSettings(cmd, site)
			return nil
		},
	}

	cmd.Flags().StringVar(&siteName, "site-name", "", "site name shown in the chat header")
	cmd.Flags().StringVar(&description, "description", "", "site description")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&whatsapp, "whatsapp", "", "WhatsApp number")
	return cmd
}

func printSettings(cmd *cobra.Command, site settings.Site) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "site name\t%s\n", site.SiteName)
	fmt.Fprintf(w, "description\t%s\n", site.SiteDescription)
	fmt.Fprintf(w, "phone\t%s\n", site.Phone)
	fmt.Fprintf(w, "whatsapp\t%s\n", site.WhatsApp)
	w.Flush()
}
