// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package runtime

import "os/exec"

// configureProcess keeps the default cancellation, which kills the tool
// process only. Processes it spawned are released by WaitDelay.
func configureProcess(*exec.Cmd) {}
