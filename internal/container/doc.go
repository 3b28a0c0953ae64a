// SPDX-License-Identifier: MPL-2.0

// Package container talks to a Docker engine through its API. It owns image
// lifecycle (inspect, pull, build, remove), the Dockerfile and build context
// for tool images, and the container primitives the container runtime
// sequences: create, copy in, attach, start, wait, copy out and remove.
package container
