// Copyright (c) 2026, The baseApp Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/exp/slices"
	"golang.org/x/term"

	"github.com/itetris/baseapp/logger"
)

const (
	defaultHelpWidth = 80
	helpNameWidth    = 12
	helpIndent       = "  "
)

//go:embed README.md
var cliHelpFile string

var markdownLinkTarget = regexp.MustCompile(`\(#[a-z-]+\)`)

// commandHelp is the reference of one console command: the first sentence of its description, and the body
// with the shell block shown as "Definition:" and bash blocks as "Example:".
type commandHelp struct {
	summary string
	body    []string
}

// Help renders the console command reference embedded from README.md.
type Help struct {
	width    uint
	commands map[string]*commandHelp
}

func newHelp() Help {
	h := Help{width: defaultHelpWidth}
	h.commands = parseHelp(cliHelpFile)
	return h
}

// parseHelp reads every "### name" section of md.
func parseHelp(md string) map[string]*commandHelp {
	commands := map[string]*commandHelp{}
	var cur *commandHelp
	inBlock := false

	scanner := bufio.NewScanner(strings.NewReader(md))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "```":
			inBlock = false
		case inBlock:
			if cur != nil && line != "" {
				cur.body = append(cur.body, helpIndent+line)
			}
		case strings.HasPrefix(line, "### "):
			cur = &commandHelp{}
			commands[strings.TrimSpace(line[4:])] = cur
		case strings.HasPrefix(line, "#"):
			cur = nil
		case strings.HasPrefix(line, "```"):
			inBlock = true
			if cur == nil {
				break
			}
			switch line {
			case "```shell":
				cur.body = append(cur.body, "", "Definition:")
			case "```bash":
				cur.body = append(cur.body, "", "Example:")
			}
		case cur == nil || line == "":
		default:
			text := unquoteMarkdown(line)
			if cur.summary == "" {
				cur.summary = firstSentence(text)
			}
			cur.body = append(cur.body, text)
		}
	}
	return commands
}

func firstSentence(text string) string {
	if idx := strings.Index(text, ". "); idx > 0 {
		return text[:idx+1]
	}
	return text
}

func unquoteMarkdown(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	md = strings.ReplaceAll(md, "`", "")
	return markdownLinkTarget.ReplaceAllString(md, "")
}

// refreshWidth follows the terminal width when stdout is a terminal.
func (help *Help) refreshWidth() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		logger.Warnf("could not get terminal size: %v", err)
		return
	}
	if width > helpNameWidth+20 {
		help.width = uint(width)
	}
}

func (help *Help) outputGeneralHelp() string {
	help.refreshWidth()
	names := make([]string, 0, len(help.commands))
	for name := range help.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%-*s %s\n", helpNameWidth, name, help.commands[name].summary)
	}
	sb.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n", help.width))
	return sb.String()
}

func (help *Help) outputCommandHelp(name string) string {
	help.refreshWidth()
	ch, ok := help.commands[name]
	if !ok {
		return fmt.Sprintf("%s\n%s(unknown command)\n", name, helpIndent)
	}
	var sb strings.Builder
	sb.WriteString(name + "\n")
	wrap := help.width - uint(len(helpIndent))
	for _, line := range ch.body {
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		for _, l := range strings.Split(wordwrap.WrapString(line, wrap), "\n") {
			sb.WriteString(helpIndent + l + "\n")
		}
	}
	return sb.String()
}
