package sysutil

import (
	"os"

	"golang.org/x/sys/windows"
)

func winSize(file *os.File) (row, col int) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(windows.Handle(file.Fd()), &info); err != nil {
		return -1, -1
	}
	w := info.Window
	return int(w.Bottom - w.Top), int(w.Right - w.Left)
}
