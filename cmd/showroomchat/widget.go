package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/City-Bureau/showroomchat/pkg/chat"
	"github.com/City-Bureau/showroomchat/pkg/locale"
	"github.com/City-Bureau/showroomchat/pkg/widget"
)

func newWidgetCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Visitor chat widget commands",
	}

	cmd.AddCommand(newWidgetOpenCmd(configPath))
	cmd.AddCommand(newWidgetStartCmd(configPath))
	cmd.AddCommand(newWidgetSendCmd(configPath))
	cmd.AddCommand(newWidgetWatchCmd(configPath))
	return cmd
}

func openWidget(cmd *cobra.Command, configPath string, opts widget.Options) (*app, *widget.Widget, error) {
	a, err := loadApp(configPath, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	opts.Source = a.source
	opts.Settings = a.site
	opts.Notifier = a.notifier
	opts.Localizer = locale.LoadLocalizer(a.cfg.Chat.Locale)
	opts.Logger = a.logger
	return a, widget.New(a.store, opts), nil
}

func printWidget(cmd *cobra.Command, w *widget.Widget) {
	out := cmd.OutOrStdout()
	name, tagline := w.Header()
	fmt.Fprintf(out, "%s\n%s\n\n", name, tagline)
	if session, ok := w.Session(); ok && w.State() == widget.Conversation {
		printMessages(out, session, 0, name)
		if unread := w.UnreadCount(); unread > 0 {
			fmt.Fprintf(out, "\n%d unread\n", unread)
		}
		return
	}
	fmt.Fprintln(out, w.Prompt())
}

func newWidgetOpenCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the widget and show the conversation",
		Long:  "Opens the widget. Resumes the remembered conversation, or shows the intake prompt when there is none.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, w, err := openWidget(cmd, *configPath, widget.Options{})
			if err != nil {
				return err
			}
			defer a.close()

			w.Open()
			printWidget(cmd, w)
			return nil
		},
	}
}

func newWidgetStartCmd(configPath *string) *cobra.Command {
	var (
		name  string
		phone string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a chat from the intake form",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, w, err := openWidget(cmd, *configPath, widget.Options{})
			if err != nil {
				return err
			}
			defer a.close()

			if w.Open() == widget.Conversation {
				return fmt.Errorf("a chat is already in progress; use 'widget send'")
			}
			session, err := w.StartChat(name, phone)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started chat %s\n", session.ID)
			printWidget(cmd, w)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "visitor name (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "visitor phone (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func newWidgetSendCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message in the current chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, w, err := openWidget(cmd, *configPath, widget.Options{})
			if err != nil {
				return err
			}
			defer a.close()

			if w.Open() != widget.Conversation {
				return fmt.Errorf("no chat started; use 'widget start'")
			}
			message, err := w.Send(strings.Join(args, " "))
			if errors.Is(err, widget.ErrEmptyMessage) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent message %s\n", message.ID)
			return nil
		},
	}
}

func newWidgetWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the current chat until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var staffName string
			printed := 0
			a, w, err := openWidget(cmd, *configPath, widget.Options{
				OnUpdate: func(session chat.Session) {
					if len(session.Messages) > printed {
						printMessages(out, session, printed, staffName)
						printed = len(session.Messages)
					}
				},
			})
			if err != nil {
				return err
			}
			defer a.close()

			if w.Open() != widget.Conversation {
				return fmt.Errorf("no chat started; use 'widget start'")
			}
			staffName, _ = w.Header()
			session, _ := w.Session()
			printMessages(out, session, 0, staffName)
			printed = len(session.Messages)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			w.Start(ctx)
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
}
