//go:build !test

package utils

import "github.com/sqweek/dialog"

// AskForFile opens a native file dialog and returns the selected
// path.
func AskForFile(title, startingDir string) (string, error) {
	builder := dialog.File().SetStartDir(startingDir).Title(title)
	return builder.Load()
}
