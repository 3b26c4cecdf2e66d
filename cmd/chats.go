package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/chat"
	"github.com/iksnae/trompo-cli/internal/realtime"
	"github.com/spf13/cobra"
)

var (
	unreadBusinessID string
	unreadWatch      bool
	unreadClearCache bool
)

var chatsCmd = &cobra.Command{
	Use:     "chats",
	Aliases: []string{"inbox"},
	Short:   "List unread chats of a business account",
	Long: `List the unread chats of a business account.

With --watch the list stays open and grows as new messages arrive, until
interrupted or the realtime connection drops. When the backend cannot be reached the last fetched list is
shown from the local cache.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireRole(internal.RoleBusinessOwner, internal.RoleAdmin)
		if err != nil {
			return err
		}
		businessID := s.UserID
		if unreadBusinessID != "" {
			businessID = internal.ID(unreadBusinessID)
		}

		if unreadClearCache {
			if err := a.cache.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear cache: %v", err)
			} else {
				internal.LogInfo("Cache cleared")
			}
		}

		var seed []internal.UnreadSummary
		snapshot, err := a.cache.LoadUnread(businessID)
		if err != nil {
			internal.LogWarn("Failed to load cache: %v", err)
		} else if snapshot != nil {
			seed = snapshot.Items
		}

		var channel chat.Channel = offlineChannel{err: errOffline}
		if unreadWatch {
			var closeChannel func()
			channel, closeChannel = a.channelOrOffline(cmd.Context(), s)
			defer closeChannel()
		}

		list := chat.NewUnreadList(a.client, channel, businessID, seed)
		out := cmd.OutOrStdout()
		if err := list.Mount(cmd.Context()); err != nil {
			if snapshot == nil {
				return err
			}
			internal.LogWarn("Could not refresh unread chats (%v); showing the list cached %s", err, snapshot.FetchedAt.Local().Format("Jan 02 15:04"))
		} else if err := a.cache.SaveUnread(businessID, list.Items()); err != nil {
			internal.LogWarn("Failed to save cache: %v", err)
		}
		defer list.Unmount()

		displayUnread(out, list.Items())
		if !unreadWatch {
			return nil
		}

		// nil when offline, which never fires
		var lost <-chan struct{}
		live, isLive := channel.(*realtime.Channel)
		if isLive {
			lost = live.Done()
		}

		_, _ = fmt.Fprintln(out, idStyle.Render("Watching for new messages, Ctrl+C to stop"))
		shown := len(list.Items())
		for {
			select {
			case <-cmd.Context().Done():
				if err := a.cache.SaveUnread(businessID, list.Items()); err != nil {
					internal.LogWarn("Failed to save cache: %v", err)
				}
				return nil
			case <-lost:
				if err := a.cache.SaveUnread(businessID, list.Items()); err != nil {
					internal.LogWarn("Failed to save cache: %v", err)
				}
				if err := live.Err(); err != nil {
					return fmt.Errorf("stopped watching, new messages will not arrive: %w", err)
				}
				return nil
			case <-list.Changes():
				items := list.Items()
				for _, item := range items[min(shown, len(items)):] {
					displayUnreadLine(out, item)
				}
				shown = len(items)
			}
		}
	},
}

func displayUnread(out io.Writer, items []internal.UnreadSummary) {
	if len(items) == 0 {
		printHeader(out, "📭 No unread chats")
		return
	}
	printHeader(out, "📬 %d unread chat(s)", len(items))

	w := newTable(out, "Chat", "From", "Sender", "Message")
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(item.ChatID.String()),
			nameStyle.Render(item.Sender.DisplayName()),
			dash(item.SenderID.String()),
			truncate(item.Message, 60),
		)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: reply with `trompo chat <sender>`"))
}

func displayUnreadLine(out io.Writer, item internal.UnreadSummary) {
	_, _ = fmt.Fprintf(out, "%s %s %s: %s\n",
		dateStyle.Render(time.Now().Format("15:04")),
		countStyle.Render("new"),
		nameStyle.Render(item.Sender.DisplayName()),
		item.Message,
	)
}

func init() {
	rootCmd.AddCommand(chatsCmd)
	chatsCmd.Flags().StringVar(&unreadBusinessID, "business-id", "", "Business account to list (default: you)")
	chatsCmd.Flags().BoolVarP(&unreadWatch, "watch", "w", false, "Keep listening for new messages")
	chatsCmd.Flags().BoolVar(&unreadClearCache, "clear-cache", false, "Clear the cache before running")
}
