// Package process terminates a launched Chrome together with its helper
// processes (renderers, GPU and network services), which outlive the main
// process when only it is killed.
package process
