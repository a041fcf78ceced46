package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/echome-x/internal/client"
)

// chatErrorText is shown instead of transport or server details.
const chatErrorText = "Sorry, I'm having trouble connecting right now. Please try again."

var chatTwinID string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with your twin",
	Long: `Without arguments starts an interactive chat; type /quit to leave.
With a message sends it once and prints the reply.`,
	Args: cobra.ArbitraryArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatTwinID, "twin", "", "twin id (default: the twin from the state file, else the latest twin)")
}

type chatter interface {
	Chat(ctx context.Context, twinID, message string) (*client.Reply, error)
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	twinID := strings.TrimSpace(chatTwinID)
	if twinID == "" {
		twinID = s.state.TwinID
	}
	name := s.state.TwinName
	if name == "" || twinID != s.state.TwinID {
		name = "Twin"
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		exchange(cmd.Context(), s.api, out, s.ui, twinID, name, strings.Join(args, " "))
		return nil
	}
	fmt.Fprintln(out, s.ui.box.Render(fmt.Sprintf("%s\n%s", s.ui.title.Render("Chatting with "+name), s.ui.dim.Render("/quit to leave"))))
	return repl(cmd.Context(), s.api, cmd.InOrStdin(), out, s.ui, twinID, name)
}

func repl(ctx context.Context, api chatter, in io.Reader, out io.Writer, ui styles, twinID, name string) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ui.you.Render("you")+ui.prompt.Render(" > "))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}
		exchange(ctx, api, out, ui, twinID, name, line)
	}
}

// exchange sends one message. A typing placeholder is shown while waiting
// and replaced by the reply or the generic error line.
func exchange(ctx context.Context, api chatter, out io.Writer, ui styles, twinID, name, msg string) {
	label := ui.twin.Render(name)
	placeholder := label + " " + ui.dim.Render("is typing...")
	fmt.Fprint(out, placeholder)

	reply, err := api.Chat(ctx, twinID, msg)
	fmt.Fprint(out, "\r"+strings.Repeat(" ", len(placeholder))+"\r")
	if err != nil {
		fmt.Fprintf(out, "%s %s\n", label, ui.err.Render(chatErrorText))
		return
	}
	if reply.Twin != nil && reply.Twin.Name != "" && name == "Twin" {
		label = ui.twin.Render(reply.Twin.Name)
	}
	fmt.Fprintf(out, "%s %s\n", label, reply.Message)
}
