// Package filebox provides file management over two storage roots and
// remote downloads into the same storage model.
//
// A storage root is one of two base directories supplied by the host: an
// app-private [RootInternal] area and a shared [RootExternal] area. Paths
// given with [RootNone] are used as they are.
//
// # Packages
//
//   - local: path resolution, blob I/O and the file store on afero
//   - remote: downloads and remote metadata over a [Transport]
//   - rclone: default [Transport] built on rclone's HTTP client
//     (import _ "github.com/nuln/filebox/rclone")
//   - manager: caller-facing facades that turn failures into sentinels
//   - retry, logging, metrics: policies, zap setup and Prometheus collectors
//   - fileboxtest: conformance suite for [LocalFileManager] implementations
//
// # Quick Start
//
//	import (
//	    "github.com/nuln/filebox"
//	    "github.com/nuln/filebox/manager"
//	)
//
//	cfg, err := filebox.LoadConfig("filebox.yaml")
//	m, err := manager.New(cfg)
//	m.Local.CreateFile("notes/today.txt", []byte("hi"), filebox.RootInternal, false)
package filebox
