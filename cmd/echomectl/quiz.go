package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/echome-x/internal/client"
	"github.com/tbourn/echome-x/internal/client/quiz"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Answer the personality quiz and create your twin",
	Long: `Walks through the personality quiz one question at a time and creates a
twin from the answers. Type the option number or value; "b" goes back.`,
	Args: cobra.NoArgs,
	RunE: runQuiz,
}

var createCmd = &cobra.Command{
	Use:   "create NAME PERSONA",
	Short: "Create a twin from free-form persona text",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		out, err := s.api.CreateTwin(cmd.Context(), client.TwinRequest{Name: args[0], Persona: args[1]})
		if err != nil {
			return err
		}
		if err := s.remember(out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", s.ui.ok.Render("Created"), out.Name, out.ID)
		return nil
	},
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	w := quiz.New()
	if err := walk(w, cmd.InOrStdin(), cmd.OutOrStdout(), s.ui); err != nil {
		return err
	}
	req, err := w.Request()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, s.ui.dim.Render("Creating your AI twin..."))
	created, err := s.api.CreateTwin(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("create twin: %w", err)
	}
	if err := s.remember(created); err != nil {
		return err
	}
	fmt.Fprintln(out, s.ui.box.Render(fmt.Sprintf("%s\n%s is ready. Run `echomectl chat` to say hello.",
		s.ui.ok.Render("Twin created"), created.Name)))
	if p := w.Permissions(); len(p) > 0 {
		fmt.Fprintln(out, s.ui.dim.Render("Linked accounts noted: "+strings.Join(p, ", ")))
	}
	return nil
}

// walk drives the wizard from line input until it is done.
func walk(w *quiz.Wizard, in io.Reader, out io.Writer, ui styles) error {
	sc := bufio.NewScanner(in)
	for !w.Done() {
		st := w.Current()
		renderStep(out, ui, w, st)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return errors.New("quiz aborted")
		}
		line := strings.TrimSpace(sc.Text())
		if line == "b" || line == "back" {
			w.Back()
			continue
		}
		if err := w.Answer(resolveChoice(st, line)); err != nil {
			fmt.Fprintln(out, ui.err.Render(message(err)))
			continue
		}
		if err := w.Next(); err != nil {
			fmt.Fprintln(out, ui.err.Render(message(err)))
		}
	}
	return nil
}

func renderStep(out io.Writer, ui styles, w *quiz.Wizard, st quiz.Step) {
	progress := "Getting started"
	switch {
	case st.Kind == quiz.KindPermissions:
		progress = "Almost done!"
	case w.Index() > 0:
		progress = fmt.Sprintf("Question %d of %d", w.Index(), w.Len()-2)
	}
	fmt.Fprintf(out, "\n%s\n%s\n", ui.dim.Render(progress), ui.title.Render(st.Prompt))
	prev, answered := w.Answered(w.Index())
	for i, o := range st.Options {
		mark := " "
		if answered && strings.EqualFold(prev, o.Value) {
			mark = "*"
		}
		fmt.Fprintf(out, " %s %d) %s\n", mark, i+1, o.Label)
	}
	switch st.Kind {
	case quiz.KindPermissions:
		fmt.Fprint(out, ui.prompt.Render("numbers or names, comma separated; empty to skip > "))
	default:
		fmt.Fprint(out, ui.prompt.Render("> "))
	}
}

// resolveChoice maps option numbers to values; anything else passes through.
func resolveChoice(st quiz.Step, line string) string {
	if st.Kind == quiz.KindName || line == "" {
		return line
	}
	parts := strings.Split(line, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if n, err := strconv.Atoi(p); err == nil && n >= 1 && n <= len(st.Options) {
			p = st.Options[n-1].Value
		}
		parts[i] = p
	}
	return strings.Join(parts, ",")
}

func message(err error) string {
	switch {
	case errors.Is(err, quiz.ErrAnswerRequired):
		return "Please answer this one to continue."
	case err == quiz.ErrInvalidAnswer:
		return "That is not one of the options."
	}
	return err.Error()
}
