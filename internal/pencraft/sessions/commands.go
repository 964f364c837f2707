package sessions

import (
	"errors"
	"slices"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/shell"
)

var ErrUnknownCommand = errors.New("unknown editor command")

// CommandArgs параметры команды редактора. Каждая команда читает только свои поля.
type CommandArgs struct {
	Level    int    `json:"level,omitempty"`
	Language string `json:"language,omitempty"`
	Href     string `json:"href,omitempty"`
}

type command func(e *shell.Editor, args CommandArgs) error

func simple(f func(e *shell.Editor) error) command {
	return func(e *shell.Editor, _ CommandArgs) error { return f(e) }
}

var commands = map[string]command{
	"toggleBold":        simple((*shell.Editor).ToggleBold),
	"toggleItalic":      simple((*shell.Editor).ToggleItalic),
	"toggleCode":        simple((*shell.Editor).ToggleCode),
	"setParagraph":      simple((*shell.Editor).SetParagraph),
	"toggleBulletList":  simple((*shell.Editor).ToggleBulletList),
	"toggleOrderedList": simple((*shell.Editor).ToggleOrderedList),
	"toggleBlockquote":  simple((*shell.Editor).ToggleBlockquote),
	"splitBlock":        simple((*shell.Editor).SplitBlock),
	"backspace":         simple((*shell.Editor).Backspace),
	"insertHardBreak":   simple((*shell.Editor).InsertHardBreak),
	"deleteSelection":   simple((*shell.Editor).DeleteSelection),
	"unsetLink":         simple((*shell.Editor).UnsetLink),
	"toggleHeading": func(e *shell.Editor, args CommandArgs) error {
		return e.ToggleHeading(args.Level)
	},
	"setCodeBlock": func(e *shell.Editor, args CommandArgs) error {
		return e.SetCodeBlock(args.Language)
	},
	"toggleCodeBlock": func(e *shell.Editor, args CommandArgs) error {
		return e.ToggleCodeBlock(args.Language)
	},
	"setLink": func(e *shell.Editor, args CommandArgs) error {
		return e.SetLink(args.Href)
	},
	"undo": func(e *shell.Editor, _ CommandArgs) error {
		e.Undo()
		return nil
	},
	"redo": func(e *shell.Editor, _ CommandArgs) error {
		e.Redo()
		return nil
	},
}

// Commands имена поддерживаемых команд.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Exec выполняет команду редактора по имени.
func (s *Session) Exec(name string, args CommandArgs) error {
	cmd, ok := commands[name]
	if !ok {
		return ErrUnknownCommand
	}
	s.touch()
	return cmd(s.editor, args)
}
