package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"cyber-assist-backend/internal/intake"
)

var errNotFinished = errors.New("input ended before the report was submitted")

// repl drives one intake session: plain lines are answers, /attach, /choice
// and /start are the other input channels.
type repl struct {
	machine *intake.Machine
	in      io.Reader
	out     io.Writer
	stat    func(path string) (int64, error)
	state   intake.State
}

func (r *repl) run() error {
	r.print(r.machine.Begin(&r.state))
	sc := bufio.NewScanner(r.in)
	for sc.Scan() {
		line := sc.Text()
		var res intake.Result
		switch cmd, arg := splitCommand(line); cmd {
		case "/start":
			res = r.machine.Begin(&r.state)
		case "/choice":
			res = r.machine.SubmitChoice(&r.state, arg)
			if !res.Handled {
				continue
			}
		case "/attach":
			r.attach(strings.Fields(arg))
			continue
		default:
			res = r.machine.SubmitAnswer(&r.state, line)
		}
		r.print(res)
		if r.state.Phase == intake.PhaseComplete {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return errNotFinished
}

func (r *repl) attach(paths []string) {
	files := make([]intake.Attachment, 0, len(paths))
	for _, p := range paths {
		size, err := r.stat(p)
		if err != nil {
			fmt.Fprintf(r.out, "! %v\n", err)
			continue
		}
		files = append(files, intake.Attachment{
			Name:     filepath.Base(p),
			Size:     size,
			MimeType: mime.TypeByExtension(filepath.Ext(p)),
		})
	}
	if len(files) == 0 {
		return
	}
	if r.machine.SubmitAttachments(&r.state, files).Handled {
		fmt.Fprintf(r.out, "+ attached %d file(s), %d total\n", len(files), len(r.state.Evidence))
	} else {
		fmt.Fprintln(r.out, "+ not recorded: evidence is collected after the last question")
	}
}

func (r *repl) print(res intake.Result) {
	for _, m := range res.Messages {
		fmt.Fprintf(r.out, "> %s\n", m.Text)
	}
}

func splitCommand(line string) (string, string) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "/") {
		return "", line
	}
	cmd, arg, _ := strings.Cut(t, " ")
	return cmd, strings.TrimSpace(arg)
}
