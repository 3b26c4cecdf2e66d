package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/chat"
	"github.com/iksnae/trompo-cli/internal/chatview"
	"github.com/iksnae/trompo-cli/internal/realtime"
	"github.com/spf13/cobra"
)

var (
	productID    string
	productName  string
	productPrice float64
)

var chatCmd = &cobra.Command{
	Use:   "chat <receiver-id>",
	Short: "Open a live conversation with another user",
	Long: `Open an interactive chat with another user. History is loaded first and
new messages arrive live. Pass --product-name and --product-price to attach
an item to your first message, as when asking a seller about a listing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		receiverID, err := argID("receiver id", args[0])
		if err != nil {
			return err
		}
		product, err := productFromFlags()
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireLogin()
		if err != nil {
			return err
		}
		if s.UserID == receiverID {
			return &internal.ValidationError{Field: "receiver id", Reason: "you cannot chat with yourself"}
		}

		channel, closeChannel := a.channelOrOffline(cmd.Context(), s)
		defer closeChannel()

		title := "Chat with " + a.counterpartName(cmd.Context(), receiverID)
		conv := chat.NewConversation(a.client, channel, s.UserID, receiverID, a.chatOptions())

		// the alt screen owns the terminal; logs go to a file meanwhile
		restore := a.redirectLogs()
		defer restore()

		return chatview.Run(cmd.Context(), cachingConversation{Conversation: conv, cache: a.cache}, title, product)
	},
}

// cachingConversation snapshots a live feed into the transcript cache
// before it is discarded on unmount
type cachingConversation struct {
	*chat.Conversation
	cache *internal.CacheManager
}

func (c cachingConversation) Unmount() {
	if c.State() == chat.StateLive {
		if err := c.cache.SaveTranscript(c.Transcript()); err != nil {
			internal.LogWarn("Failed to save cache: %v", err)
		}
	}
	c.Conversation.Unmount()
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <receiver-id>",
	Short: "Print the conversation with another user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		receiverID, err := argID("receiver id", args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireLogin()
		if err != nil {
			return err
		}

		messages, err := chat.LoadHistory(cmd.Context(), a.client, s.UserID, receiverID)
		if err != nil {
			cached, cacheErr := a.cache.LoadTranscript(s.UserID, receiverID)
			if cacheErr != nil || cached == nil {
				return err
			}
			internal.LogWarn("Could not load messages (%v); showing the cached copy", err)
			messages = cached.Messages
		} else if err := a.cache.SaveTranscript(internal.NewTranscript(s.UserID, receiverID, messages)); err != nil {
			internal.LogWarn("Failed to save cache: %v", err)
		}

		out := cmd.OutOrStdout()
		if len(messages) == 0 {
			printHeader(out, "💬 No messages yet")
			return nil
		}
		printHeader(out, "💬 %d message(s) with %s", len(messages), receiverID)
		_, _ = fmt.Fprint(out, chatview.Render(messages, s.UserID, 0))
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <receiver-id> <message>",
	Short: "Send one message without opening the chat view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		receiverID, err := argID("receiver id", args[0])
		if err != nil {
			return err
		}
		product, err := productFromFlags()
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.requireLogin()
		if err != nil {
			return err
		}

		channel, closeChannel := a.channelOrOffline(cmd.Context(), s)
		defer closeChannel()

		record, err := chat.Deliver(cmd.Context(), a.client, channel, s.UserID, receiverID, args[1], product)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Sent message %s to %s", record.ID, receiverID))
		return nil
	},
}

// offlineChannel stands in for the realtime channel when it cannot be
// reached. Messages are still persisted; they are just not pushed.
type offlineChannel struct {
	err error
}

func (offlineChannel) On(string, realtime.Handler) func() { return func() {} }

func (o offlineChannel) Emit(event string, _ interface{}) error {
	return &internal.TransportError{Op: "emit " + event, Target: "realtime", Err: o.err}
}

var errOffline = errors.New("realtime channel unavailable")

// channelOrOffline opens the realtime channel, falling back to offline
// delivery. The returned func closes whatever was opened.
func (a *app) channelOrOffline(ctx context.Context, s *internal.Session) (chat.Channel, func()) {
	ch, err := a.openChannel(ctx, s)
	if err != nil {
		internal.LogWarn("Realtime unavailable, messages will not arrive live: %v", err)
		return offlineChannel{err: fmt.Errorf("%w: %v", errOffline, err)}, func() {}
	}
	return ch, func() {
		if err := ch.Close(); err != nil {
			internal.LogDebug("Closing realtime channel: %v", err)
		}
	}
}

func (a *app) chatOptions() chat.Options {
	opts := chat.DefaultOptions()
	opts.FilterSelfEcho = a.cfg.FilterSelfEcho
	return opts
}

// counterpartName looks up a display name, falling back to the id
func (a *app) counterpartName(ctx context.Context, id internal.ID) string {
	u, err := a.client.GetUser(ctx, id)
	if err != nil {
		internal.LogDebug("Could not look up user %s: %v", id, err)
		return "User " + id.String()
	}
	return displayUser(*u)
}

// redirectLogs sends log output to trompo.log in the data dir until the
// returned func is called
func (a *app) redirectLogs() func() {
	var w io.Writer = io.Discard
	f, err := os.OpenFile(filepath.Join(a.cfg.DataDir, "trompo.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		w = f
	}
	internal.SetLogOutput(w)
	return func() {
		internal.SetLogOutput(os.Stderr)
		if f != nil {
			_ = f.Close()
		}
	}
}

func productFromFlags() (*internal.Product, error) {
	if productName == "" && productID == "" {
		return nil, nil
	}
	if productName == "" {
		return nil, &internal.ValidationError{Field: "product-name", Reason: "required when attaching a product"}
	}
	if productPrice < 0 {
		return nil, &internal.ValidationError{Field: "product-price", Reason: "must not be negative"}
	}
	return &internal.Product{SellableID: internal.ID(productID), Name: productName, Price: productPrice}, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatHistoryCmd, chatSendCmd)

	for _, c := range []*cobra.Command{chatCmd, chatSendCmd} {
		c.Flags().StringVar(&productID, "product-id", "", "Id of the attached sellable")
		c.Flags().StringVar(&productName, "product-name", "", "Name of the attached sellable")
		c.Flags().Float64Var(&productPrice, "product-price", 0, "Price of the attached sellable")
	}
}
