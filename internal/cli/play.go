/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JesseTheCatLover/Amish/internal/runner"
	"github.com/JesseTheCatLover/Amish/internal/script"
	"github.com/spf13/cobra"
)

func (a *app) playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play [paths...]",
		Short: "Step through the dialogue in the terminal",
		Long:  "Show one entry at a time. Press Enter for the next line, b then Enter to go back, q then Enter to quit. When input ends, the remaining lines are printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := a.documents(args)
			if err != nil {
				return err
			}
			p := &terminalPresenter{out: cmd.OutOrStdout(), anon: a.cfg.Dialogue.AnonymousName}
			r := runner.New(docs, a.language(), p)
			return play(r, bufio.NewReader(cmd.InOrStdin()))
		},
	}
}

func play(r *runner.Runner, in *bufio.Reader) error {
	if err := r.Start(); err != nil {
		return err
	}
	eof := false
	for !r.Done() {
		cmd := ""
		if !eof {
			line, err := in.ReadString('\n')
			if errors.Is(err, io.EOF) {
				eof = true
			} else if err != nil {
				return err
			}
			cmd = strings.ToLower(strings.TrimSpace(line))
		}
		switch cmd {
		case "q":
			return nil
		case "b":
			if _, err := r.Back(); err != nil {
				return err
			}
		default:
			if err := r.Next(); err != nil {
				return err
			}
		}
	}
	return nil
}

// terminalPresenter prints entries as "name (face, left, right): text".
// Anonymous speakers are shown under anon.
type terminalPresenter struct {
	out  io.Writer
	anon string
}

func (p *terminalPresenter) Show(e script.DialogueEntry) error {
	who := p.describe(e.Main)
	if e.Companion != nil {
		who += " & " + p.describe(*e.Companion)
	}
	_, err := fmt.Fprintf(p.out, "%s: %s\n", who, e.Text)
	return err
}

func (p *terminalPresenter) End() error {
	_, err := fmt.Fprintln(p.out, "-- end --")
	return err
}

func (p *terminalPresenter) describe(c script.CharacterState) string {
	name := string(c.Key)
	if c.IsAnonymous {
		name = p.anon
	}
	return fmt.Sprintf("%s (%s, %s, %s)", name, c.Face, c.LeftHand, c.RightHand)
}
