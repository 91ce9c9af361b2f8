// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin

import (
	"github.com/atotto/clipboard"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard is the OS clipboard via atotto/clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New(errors.CodeClipboardUnsupported, "no clipboard utility available")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeClipboardFailure, "reading clipboard")
	}
	return text, nil
}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New(errors.CodeClipboardUnsupported, "no clipboard utility available")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return errors.Wrap(err, errors.CodeClipboardFailure, "writing clipboard")
	}
	return nil
}

// NewClipboard returns the clipboard plugin: read answers with the current
// text, write(text) replaces it.
func NewClipboard(c Clipboard) bridge.Plugin {
	return bridge.NewPlugin(ClipboardName, map[string]bridge.Handler{
		"read": func(cmd *bridge.Command) {
			text, err := c.ReadAll()
			if err != nil {
				failWith(cmd, clipboardStatus(err), err)
				return
			}
			cmd.SuccessWithString(text)
		},
		"write": func(cmd *bridge.Command) {
			if !cmd.HasStringAt(0) {
				cmd.ErrorWithStatus(bridge.StatusInvalidAction, bridge.StringMessage("text must be a string"))
				return
			}
			if err := c.WriteAll(cmd.StringAt(0, "")); err != nil {
				failWith(cmd, clipboardStatus(err), err)
				return
			}
			cmd.Success()
		},
	})
}

func clipboardStatus(err error) bridge.Status {
	if errors.IsUnsupported(err) {
		return bridge.StatusClassNotFound
	}
	return bridge.StatusIOError
}
