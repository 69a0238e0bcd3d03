package main

import (
	"runtime"

	"github.com/user0608/moodcam/internal/cli"
)

// highgui windows must be driven from the main thread.
func init() { runtime.LockOSThread() }

func main() {
	cli.Execute()
}
