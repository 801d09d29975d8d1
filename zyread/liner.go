package zyread

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/glycerine/liner"
)

var completion_keywords = []string{`.dump`, `.json`, `.locations`, `.quit`, `.sexp`, `.verb`, `(quote `, `(quasiquote `, `(unquote `, `(unquote-splicing `}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zyreadhist"
	}
	return filepath.Join(home, ".zyreadhist")
}

type Prompter struct {
	prompt   string
	prompter *liner.State
	history  string
}

func NewPrompter(prompt string) *Prompter {
	p := &Prompter{
		prompt:   prompt,
		prompter: liner.NewLiner(),
		history:  historyFile(),
	}

	p.prompter.SetCtrlCAborts(false)

	p.prompter.SetCompleter(func(line string) (c []string) {
		for _, n := range completion_keywords {
			if strings.HasPrefix(n, strings.ToLower(line)) {
				c = append(c, n)
			}
		}
		return
	})

	if f, err := os.Open(p.history); err == nil {
		p.prompter.ReadHistory(f)
		f.Close()
	}

	return p
}

func (p *Prompter) Close() {
	defer p.prompter.Close()
	if f, err := os.Create(p.history); err != nil {
		log.Print("Error writing history file: ", err)
	} else {
		p.prompter.WriteHistory(f)
		f.Close()
	}
}

func (p *Prompter) Getline(prompt *string) (line string, err error) {
	if prompt == nil {
		line, err = p.prompter.Prompt(p.prompt)
	} else {
		line, err = p.prompter.Prompt(*prompt)
	}
	if err == nil {
		p.prompter.AppendHistory(line)
		return line, nil
	}
	return "", err
}
